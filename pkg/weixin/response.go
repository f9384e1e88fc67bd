package weixin

// AccessTokenResponse is the result of /cgi-bin/token.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	// ExpiresIn is the token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// SessionResponse is the result of /sns/jscode2session.
type SessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	UnionID    string `json:"unionid,omitempty"`
}

// UserPhoneResponse is the result of /wxa/business/getuserphonenumber.
type UserPhoneResponse struct {
	PhoneInfo PhoneInfo `json:"phone_info"`
}

// PhoneInfo holds the user's bound phone number.
type PhoneInfo struct {
	PhoneNumber     string    `json:"phone_number"`
	PurePhoneNumber string    `json:"pure_phone_number"`
	CountryCode     string    `json:"country_code"`
	Watermark       Watermark `json:"watermark"`
}

// Watermark identifies the app and time the phone data was issued for.
type Watermark struct {
	Timestamp int64  `json:"timestamp"`
	AppID     string `json:"appid"`
}

type urlLinkResponse struct {
	URLLink string `json:"url_link"`
}
