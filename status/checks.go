package status

// CheckInt compares expected against actual, records the outcome for the
// current sub-test and returns it.
func (s *Status) CheckInt(expected, actual int) bool {
	ok := expected == actual
	if !ok || s.opts.ShowValues {
		s.logCheck("int check", expected, actual, ok)
	}
	return s.Pass(ok)
}

// CheckBool compares expected against actual, records the outcome for the
// current sub-test and returns it.
func (s *Status) CheckBool(expected, actual bool) bool {
	ok := expected == actual
	if !ok || s.opts.ShowValues {
		s.logCheck("bool check", expected, actual, ok)
	}
	return s.Pass(ok)
}

// CheckString compares expected against actual exactly, records the outcome
// for the current sub-test and returns it. Fuzzy comparison lives in the
// compare package.
func (s *Status) CheckString(expected, actual string) bool {
	ok := expected == actual
	if !ok || s.opts.ShowValues {
		s.logCheck("string check", expected, actual, ok)
	}
	return s.Pass(ok)
}

func (s *Status) logCheck(kind string, expected, actual any, ok bool) {
	if ok {
		s.log.Debug(kind,
			"case", s.caseDesc, "subtest", s.subtest, "expected", expected, "actual", actual)
		return
	}
	s.log.Warn(kind+" mismatch",
		"case", s.caseDesc, "subtest", s.subtest, "expected", expected, "actual", actual)
}
