package store

// Mutation is a marker interface for write operations.
type Mutation interface{ isMutation() }

// Insert represents an insert operation with column values.
type Insert struct {
	Values Record
}

func (Insert) isMutation() {}

// Update represents an update with SET values and a WHERE filter.
type Update struct {
	Set   Record
	Where Node
}

func (Update) isMutation() {}

// Delete represents a delete with a WHERE filter.
type Delete struct {
	Where Node
}

func (Delete) isMutation() {}

// Helper constructors

func NewInsert(values Record) Insert { return Insert{Values: values} }

func NewUpdate(set Record, where Node) Update { return Update{Set: set, Where: where} }

func NewDelete(where Node) Delete { return Delete{Where: where} }
