package service

// SetCodeGenerator replaces the join code source.
func (s *TeamService) SetCodeGenerator(generate func() (string, error)) {
	s.generateCode = generate
}
