// Package models defines the domain entities of the cantus repertoire manager.
//
// Repertoire:
//   - [Category] : ordered grouping of songs (Entrée, Offertoire, ...)
//   - [Song] : a hymn with its structured lyrics ([LyricsPart]) and optional media links
//
// Programs:
//   - [Mass] : a dated celebration, unpublished until a moderator publishes it
//   - [MassSong] : one program entry with its position, liturgical moment and selected parts
//
// People:
//   - [Profile] : mirrors an authenticated identity and carries its [Role]
//   - [Favorite] : existence-only (user, song) bookmark
//   - [Session] : a server-side login token
//
// The [Repository] interface defines the standard CRUD contract that the sqlite implementations in
// package repositories satisfy.
package models
