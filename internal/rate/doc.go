// Package rate throttles failed console logins with Redis fixed-window
// counters: INCR, plus EXPIRE on the first hit of a window.
//
// Keys are <namespace>:login:user:<username> and, with PerIP set,
// <namespace>:login:ip:<ip>.
package rate
