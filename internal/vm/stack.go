package vm

// stack is a fixed-capacity LIFO of return addresses.
type stack struct {
	entries [StackSize]uint16
	sp      int
}

func (s *stack) push(addr uint16) error {
	if s.sp == len(s.entries) {
		return ErrStackOverflow
	}

	s.entries[s.sp] = addr
	s.sp++
	return nil
}

func (s *stack) pop() (uint16, error) {
	if s.sp == 0 {
		return 0, ErrStackUnderflow
	}

	s.sp--
	return s.entries[s.sp], nil
}

func (s *stack) len() int {
	return s.sp
}

func (s *stack) clear() {
	clear(s.entries[:])
	s.sp = 0
}
