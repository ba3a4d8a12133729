package revex

// MaxMarkupLength bounds the markup sent to the inference service.
const MaxMarkupLength = 15000

// Reducer shrinks page markup before it is sent to the inference service.
type Reducer interface {
	// Reduce strips non-content elements and truncates the result to at
	// most MaxMarkupLength bytes. Reduce never fails.
	Reduce(html string) string
}
