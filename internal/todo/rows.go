package todo

// Row is one visible line of the list: a top-level task or a child.
type Row struct {
	Task     Task
	ParentID string
}

// IsChild reports whether the row is nested under a parent.
func (r Row) IsChild() bool {
	return r.ParentID != ""
}

// Rows flattens the list in display order, each parent followed by its
// children.
func (s State) Rows() []Row {
	rows := make([]Row, 0, len(s.Tasks))
	for _, task := range s.Tasks {
		rows = append(rows, Row{Task: task})
		for _, child := range task.Children {
			rows = append(rows, Row{Task: child, ParentID: task.ID})
		}
	}
	return rows
}
