package port

// FieldProvider supplies the entered field values of a form session. Keys are
// namespaced by slot index ("customer_3") so each slot's state is
// independently addressable and resettable.
type FieldProvider interface {
	// Select returns a single choice from options; the first option is the
	// "please choose" sentinel and is returned for untouched or invalid keys.
	Select(label string, options []string, key string) string

	// Text returns free-text input, or def when nothing was entered.
	Text(label, key, def string) string
}
