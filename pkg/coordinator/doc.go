// Package coordinator implements the transaction coordinator: the 2PC
// driver a frontend uses to open a Transaction, buffer reads, writes, and
// deletes against a sharded keyspace, and bring the transaction to a
// Committed or Aborted outcome. The range servers, keyspace directory,
// assignment oracle, epoch reader, and transaction state store are all
// external collaborators this package only talks to through the
// interfaces in pkg/universe, pkg/oracle, pkg/epochreader, pkg/rangeclient,
// and pkg/txstatestore.
package coordinator
