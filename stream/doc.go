/*
Package stream provides the in-process event stream the ledger bus runs on.
It is a broadcast: every matching subscriber sees every event, in publish order.
*/
package stream
