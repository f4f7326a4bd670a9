package models

// Cursor holds the ids of the boundary entities of a page. Passing Next as the "after"
// argument of a subsequent request fetches the following page, passing Previous as the
// "before" argument fetches the preceding one. A nil id means there is no such page.
type Cursor struct {
	Next     *ResourceID `json:"next" yaml:"next"`
	Previous *ResourceID `json:"previous" yaml:"previous"`
}

func (c *Cursor) HasNext() bool {
	return c != nil && c.Next != nil
}

func (c *Cursor) HasPrevious() bool {
	return c != nil && c.Previous != nil
}
