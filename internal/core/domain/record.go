package domain

// Record is the normalized unit of content shared by all content types.
// Type-specific upstream fields travel in Extra and are not interpreted by the core.
type Record struct {
	ID            int               `json:"id"`
	ContentType   ContentType       `json:"content_type"`
	Collection    string            `json:"collection,omitempty"`
	SubCollection string            `json:"sub_collection,omitempty"`
	Category      string            `json:"category,omitempty"`
	Title         string            `json:"title,omitempty"`
	PrimaryText   string            `json:"primary_text"`   // Arabic script
	SecondaryText string            `json:"secondary_text"` // Translation
	Extra         map[string]string `json:"extra,omitempty"`
}

// Ref returns the composite identity of the record
func (r *Record) Ref() ContentRef {
	return ContentRef{
		Collection: Collection{
			Type:          r.ContentType,
			Name:          r.Collection,
			SubCollection: r.SubCollection,
		},
		ID: r.ID,
	}
}

// Number is the value matched by number_range filters
func (r *Record) Number() int {
	return r.ID
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// CloneRecords deep-copies a record list
func CloneRecords(records []*Record) []*Record {
	if records == nil {
		return nil
	}
	out := make([]*Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// CatalogResult is the outcome of materializing a whole collection.
// A partial result is valid; Failed lists the ids that were skipped.
type CatalogResult struct {
	Collection Collection `json:"collection"`
	Records    []*Record  `json:"records"`
	Failed     []int      `json:"failed,omitempty"`
}

// Partial reports whether some items could not be fetched
func (c *CatalogResult) Partial() bool {
	return len(c.Failed) > 0
}

// Page is a window of a paged collection
type Page struct {
	Collection Collection `json:"collection"`
	Records    []*Record  `json:"records"`
	Offset     int        `json:"offset"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	Failed     []int      `json:"failed,omitempty"`
}
