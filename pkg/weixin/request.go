package weixin

// Mini-program versions accepted by env_version.
const (
	EnvRelease = "release"
	EnvTrial   = "trial"
	EnvDevelop = "develop"
)

// url_link expire_type values.
const (
	ExpireTypeTime     = 0
	ExpireTypeInterval = 1
)

type codeRequest struct {
	Code string `json:"code"`
}

// Color is an RGB line color for QR codes.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// RGB builds a Color.
func RGB(r, g, b int) *Color {
	return &Color{R: r, G: g, B: b}
}

// UnlimitedQrCodeRequest is the body of /wxa/getwxacodeunlimit.
type UnlimitedQrCodeRequest struct {
	Scene      string `json:"scene"`
	Page       string `json:"page,omitempty"`
	CheckPath  *bool  `json:"check_path,omitempty"`
	EnvVersion string `json:"env_version,omitempty"`
	Width      int    `json:"width,omitempty"`
	AutoColor  *bool  `json:"auto_color,omitempty"`
	LineColor  *Color `json:"line_color,omitempty"`
	IsHyaline  *bool  `json:"is_hyaline,omitempty"`
}

// NewUnlimitedQrCodeRequest builds a request that opens the mini-program home page.
func NewUnlimitedQrCodeRequest(scene string) *UnlimitedQrCodeRequest {
	return &UnlimitedQrCodeRequest{Scene: scene}
}

// NewPageQrCodeRequest builds a request that opens the given page.
func NewPageQrCodeRequest(scene, page string) *UnlimitedQrCodeRequest {
	return &UnlimitedQrCodeRequest{Scene: scene, Page: page}
}

// CloudBase describes the static-site H5 jump target of a url_link.
type CloudBase struct {
	Env           string `json:"env"`
	Domain        string `json:"domain,omitempty"`
	Path          string `json:"path,omitempty"`
	Query         string `json:"query,omitempty"`
	ResourceAppID string `json:"resource_appid,omitempty"`
}

// NewCloudBase builds a CloudBase for the given cloud environment id.
func NewCloudBase(env string) *CloudBase {
	return &CloudBase{Env: env}
}

// GenerateUrlLinkRequest is the body of /wxa/generate_urllink.
type GenerateUrlLinkRequest struct {
	Path           string     `json:"path,omitempty"`
	Query          string     `json:"query,omitempty"`
	IsExpire       *bool      `json:"is_expire,omitempty"`
	ExpireType     *int       `json:"expire_type,omitempty"`
	ExpireTime     int64      `json:"expire_time,omitempty"`
	ExpireInterval int        `json:"expire_interval,omitempty"`
	EnvVersion     string     `json:"env_version,omitempty"`
	CloudBase      *CloudBase `json:"cloud_base,omitempty"`
}

// NewGenerateUrlLinkRequest builds a link to path with the given query string.
func NewGenerateUrlLinkRequest(path, query string) *GenerateUrlLinkRequest {
	return &GenerateUrlLinkRequest{Path: path, Query: query}
}

// SetExpireTime makes the link expire at the given unix time.
func (r *GenerateUrlLinkRequest) SetExpireTime(unix int64) {
	r.IsExpire = Bool(true)
	r.ExpireType = Int(ExpireTypeTime)
	r.ExpireTime = unix
	r.ExpireInterval = 0
}

// SetExpireInterval makes the link expire the given number of days after generation.
func (r *GenerateUrlLinkRequest) SetExpireInterval(days int) {
	r.IsExpire = Bool(true)
	r.ExpireType = Int(ExpireTypeInterval)
	r.ExpireInterval = days
	r.ExpireTime = 0
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to i.
func Int(i int) *int { return &i }
