package models

type ResourceKind string

func (s ResourceKind) String() string {
	return string(s)
}

// ETagAny matches any current etag.
const ETagAny = "*"

// ETag is a hash of a resource's contents, used for optimistic locking.
type ETag string

func (e ETag) String() string {
	return string(e)
}

// GetETag returns etag if set, otherwise the resource's current ETag.
func GetETag(resource MutableResource, etag ETag) ETag {
	if etag != "" {
		return etag
	}
	return resource.GetETag()
}

type Resource interface {
	// GetKind returns the unique name/type of the resource e.g. "subscriber".
	GetKind() ResourceKind
	// GetCreatedAt returns the Time at which this resource was created.
	GetCreatedAt() Time
	// GetID returns the globally unique ResourceID of the resource.
	GetID() ResourceID
	// Validate the model by checking for required fields, lengths and types etc.
	Validate() error
}

type MutableResource interface {
	Resource
	GetETag() ETag
	SetETag(eTag ETag)
	GetUpdatedAt() Time
	SetUpdatedAt(t Time)
}

// FieldResource is a resource whose fields can be read by their search field name, which
// is what lets a generic store evaluate filters and extract sort keys.
type FieldResource interface {
	Resource
	// GetFieldValue returns the value of the named field, or an error if the resource has no such field.
	GetFieldValue(field string) (interface{}, error)
}
