package schema

// Column describes one projected column of the source expression: the
// declared type name plus the attributes needed to replicate it on the
// destination. Length applies to variable-length character and binary
// types, precision and scale to exact numerics; a nil pointer means the
// attribute does not apply or was not reported.
type Column struct {
	Name       string
	DataType   string
	Nullable   bool
	MaxLength  *int64
	Precision  *int64
	Scale      *int64
	IsIdentity bool
}
