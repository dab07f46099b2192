// Package artifact stores binary animation output on local disk under unique
// names so the relay can serve it statically. The store is transient: the
// serve runtime purges it on startup and prunes it on a timer.
package artifact
