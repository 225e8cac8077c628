// Package server exposes a read-only HTTP view of a running world.
//
// Routes:
//
//	GET /healthz                      liveness and versions
//	GET /homes                        every loaded home
//	GET /homes/{pos}                  one home, pos as "x,y,z"
//	GET /homes/{pos}/gain?x=&y=&z=    gain heard by a listener at x,y,z
//
// Handlers only read the world; mutations go through the engine.
package server
