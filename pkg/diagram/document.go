package diagram

import "time"

// Comment is a note a collaborator attached to a node.
type Comment struct {
	ID        string    `json:"id" bson:"id"`
	NodeID    string    `json:"nodeId" bson:"node_id"`
	UserID    string    `json:"userId,omitempty" bson:"user_id,omitempty"`
	UserName  string    `json:"userName,omitempty" bson:"user_name,omitempty"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// Document is a titled graph together with its comments. It is the unit
// exchanged with storage, import/export and the generator.
type Document struct {
	Title    string    `json:"title" bson:"title"`
	Graph    Graph     `json:"graph" bson:"graph"`
	Comments []Comment `json:"comments,omitempty" bson:"comments,omitempty"`
}

// Sanitize returns a copy of d with a sanitized graph and without comments
// attached to nodes that no longer exist.
func (d Document) Sanitize() Document {
	out := Document{Title: d.Title, Graph: d.Graph.Sanitize()}
	ids := out.Graph.idSet()
	for _, c := range d.Comments {
		if ids[c.NodeID] {
			out.Comments = append(out.Comments, c)
		}
	}
	return out
}
