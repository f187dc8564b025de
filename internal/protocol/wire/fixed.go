package wire

// Width binds a byte width to a FixedString type. Implementations are empty
// structs so the width costs nothing at runtime.
type Width interface {
	Width() int
}

// FixedString is GBK text stored in a field of exactly W.Width() bytes, zero
// padded on the right. The zero value is the empty string.
type FixedString[W Width] struct {
	text string
}

// NewFixedString validates that text fits the width before returning it.
func NewFixedString[W Width](text string) (FixedString[W], error) {
	s := FixedString[W]{text: text}
	if err := NewEncoder().WriteFixedString(text, s.Width()); err != nil {
		return FixedString[W]{}, err
	}
	return s, nil
}

// MustFixedString is NewFixedString for constants known to fit; it panics otherwise.
func MustFixedString[W Width](text string) FixedString[W] {
	s, err := NewFixedString[W](text)
	if err != nil {
		panic(err)
	}
	return s
}

func (s FixedString[W]) String() string { return s.text }

func (s FixedString[W]) Width() int {
	var w W
	return w.Width()
}

func (s FixedString[W]) MarshalText() ([]byte, error) {
	return []byte(s.text), nil
}

func (s FixedString[W]) MarshalWire(e *Encoder) error {
	return e.WriteFixedString(s.text, s.Width())
}

func (s *FixedString[W]) UnmarshalWire(d *Decoder) error {
	text, err := d.ReadFixedString(s.Width())
	if err != nil {
		return err
	}
	s.text = text
	return nil
}
