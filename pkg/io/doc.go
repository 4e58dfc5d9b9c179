// Package io reads and writes kintree datasets as JSON.
//
// A dataset is a complete snapshot of a store: relation masters, members and
// edges with their ids. The format is:
//
//	{
//	  "version": 1,
//	  "masters": [{"id": 1, "code": "SPOUSE", "label": "Spouse", ...}],
//	  "members": [{"id": 1, "firstName": "Alice", "lastName": "Smith", ...}],
//	  "edges":   [{"id": 1, "fromMemberId": 2, "toMemberId": 1, "relationId": 1}]
//	}
//
// # Export
//
// [Export] snapshots a store and [WriteJSON] or [ExportJSON] encode the
// result. Mirror edges are exported like any other edge.
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode and validate a dataset: member and edge
// ids are unique, every edge names known members and a known master, and no
// edge is a self loop. [Load] writes a validated dataset into a store.
// Member and edge ids are preserved. Masters are matched by code, so a
// dataset can be loaded into a store that already holds the default masters.
package io
