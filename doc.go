/*
Package kvtx implements an in-process, memory-resident, transactional
key-value store with typed tables and secondary indexes.

We implement:

 1. Tables, typed collections of Go values keyed by a primary key extracted
    from each row.

 2. Value indexes, allowing quick exact-match lookup of table rows by a
    derived attribute.

 3. Range-scan indexes, allowing ordered, bounded lookup of table rows by a
    derived attribute.

 4. A small SQL frontend (see the sql subpackage) compiling SELECT and
    UPDATE statements into the same table/index operations a caller would
    write by hand.

# Technical Details

**Rows are values, not records.** A table's row type V is copied in and
out of the store on every Get/Set; nothing hands back a live pointer into
table state, so a caller can never observe a row mid-mutation.

**Snapshots, not encoding.** There is no on-disk format and nothing is
serialized: a table's data is a plain map[K]V plus whatever secondary
index structures it has, and the entire engine publishes its working set
as one atomic pointer swap per committed write transaction.

**Concurrency.** Reads pin a published snapshot and never block each
other or the single writer. Writes are strictly serialized: only one
write transaction is in flight per Engine at a time, and it clones only
the tables it actually touches before publishing.
*/
package kvtx
