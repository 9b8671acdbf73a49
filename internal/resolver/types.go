package resolver

import "encoding/json"

// Application is one entitlement descriptor. Entries are owned by the
// role backends and passed through opaquely apart from URL templating
// at render time.
type Application struct {
	AppName string `json:"app_name"`
	AppURL  string `json:"app_url"`
}

// EmployeeMapping is the business-partner mapping for an employee
type EmployeeMapping struct {
	BP         string `json:"BP"`
	CostCenter string `json:"cost_center"`
}

type employeeResponse struct {
	Data []EmployeeMapping `json:"data"`
}

type roleResponse struct {
	TOA []Application `json:"toa"`
}

type entitlementResponse struct {
	Data []Application `json:"data"`
}

type applicationListResponse struct {
	ListApplication json.RawMessage `json:"listApplication"`
}

type sessionTokenResponse struct {
	RefreshToken string `json:"refresh_token"`
}

type registerLoginRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

type uploadImageRequest struct {
	BP        string `json:"bp"`
	ImageData string `json:"image_data"`
}
