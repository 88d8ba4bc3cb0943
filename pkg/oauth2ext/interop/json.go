package interop

// JSONToken represents the JSON response of an access token request.
//
// Fields are pointers so that a key missing from the response can be told
// apart from a key present with its zero value.
type JSONToken struct {
	AccessToken  *string `json:"access_token"`
	TokenType    *string `json:"token_type"`
	ExpiresIn    *int64  `json:"expires_in"`
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// Missing returns the names of the required keys that were absent (or null)
// in the decoded response.
func (jt *JSONToken) Missing() []string {
	var missing []string
	if jt.AccessToken == nil {
		missing = append(missing, "access_token")
	}
	if jt.TokenType == nil {
		missing = append(missing, "token_type")
	}
	if jt.ExpiresIn == nil {
		missing = append(missing, "expires_in")
	}
	return missing
}

// JSONError is the type of an error response.
type JSONError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
}
