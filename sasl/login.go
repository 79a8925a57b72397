package sasl

// Login exchange states.
const (
	loginStateUsername = iota
	loginStatePassword
	loginStateDone
)

// Base64-encoded challenge strings servers send for the LOGIN mechanism.
const (
	// LoginChallengeUsername is "Username:" encoded in base64.
	LoginChallengeUsername = "VXNlcm5hbWU6"
	// LoginChallengePassword is "Password:" encoded in base64.
	LoginChallengePassword = "UGFzc3dvcmQ6"
)

// Login implements the client side of the LOGIN SASL mechanism: the
// username, then the password, each as a separate response line.
type Login struct {
	state int
	creds Credentials
}

// NewLogin creates a LOGIN mechanism for the given credentials.
func NewLogin(creds Credentials) *Login {
	return &Login{creds: creds}
}

// Name returns "LOGIN".
func (l *Login) Name() string {
	return "LOGIN"
}

// Next answers the server's challenge. LOGIN ignores the challenge
// text: the first response is the username, the second the password.
func (l *Login) Next(challenge string) (string, bool, error) {
	switch l.state {
	case loginStateUsername:
		l.state = loginStatePassword
		return l.creds.Username, false, nil
	case loginStatePassword:
		l.state = loginStateDone
		return l.creds.Password, true, nil
	default:
		return "", true, ErrExchangeComplete
	}
}
