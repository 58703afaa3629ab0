package message

// Walk visits part and, if it is multipart, every part beneath it in
// depth-first order, calling fn for each. If fn returns an error, Walk stops
// and returns that error immediately. Walk only reads the part tree; use
// the walk package's AndProcess for access to each part's ancestry.
func Walk(part Part, fn func(Part) error) error {
	if err := fn(part); err != nil {
		return err
	}
	if !part.IsMultipart() {
		return nil
	}
	for _, sub := range part.GetParts() {
		if err := Walk(sub, fn); err != nil {
			return err
		}
	}
	return nil
}
