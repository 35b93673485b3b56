package remote

// SetMaxBody lowers the download cap for tests and returns a restore func.
func SetMaxBody(n int64) func() {
	prev := maxBody
	maxBody = n
	return func() { maxBody = prev }
}
