// Package family defines the records kintree stores: members, relation
// masters and the directed edges that connect members.
//
// Edges are sparse. A marriage is two SPOUSE edges, a father is a FATHER edge
// plus its CHILD mirror. The [View] type holds the family a member ends up
// with once those edges are interpreted; see package inference for how it is
// computed.
package family
