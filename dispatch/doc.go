/*
Package dispatch routes command and query request events to their registered
handlers and reports completion back onto the stream.
*/
package dispatch
