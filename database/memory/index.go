// Package memory provides an in-memory database implementation.
package memory

import "github.com/hashicorp/go-memdb"

const (
	tblConnections = "connections"
)

const (
	idxConnID = "id"
)

// schema is the schema of the memory database.
var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblConnections: {
			Name: tblConnections,
			Indexes: map[string]*memdb.IndexSchema{
				idxConnID: {
					Name:    idxConnID,
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
	},
}
