package inquiry

import "strings"

// Field is one labelled line of an inquiry email.
type Field struct {
	Label string
	Value string
}

// PartnershipDetails is the category-specific part of a partnership inquiry.
type PartnershipDetails interface {
	Kind() string
	Fields() []Field
}

type HostingEvent struct {
	Location     string
	DateTime     string
	PriceRange   string
	Currency     string
	EventDetails string
}

func (HostingEvent) Kind() string { return "hosting event" }
func (d HostingEvent) Fields() []Field {
	return []Field{
		{"Location", d.Location},
		{"Date and Time", d.DateTime},
		{"Price Range", d.PriceRange},
		{"Currency", d.Currency},
		{"Event Details", d.EventDetails},
	}
}

type OrderingMerch struct {
	Quantity        string
	DeliveryAddress string
	EventDetails    string
}

func (OrderingMerch) Kind() string { return "ordering merch" }
func (d OrderingMerch) Fields() []Field {
	return []Field{
		{"Quantity", d.Quantity},
		{"Delivery Address", d.DeliveryAddress},
		{"Event Details", d.EventDetails},
	}
}

type CorporateWellness struct {
	CompanySize      string
	PreferredProgram string
	Location         string
	EventDetails     string
}

func (CorporateWellness) Kind() string { return "corporate wellness" }
func (d CorporateWellness) Fields() []Field {
	return []Field{
		{"Company Size", d.CompanySize},
		{"Preferred Program", d.PreferredProgram},
		{"Location", d.Location},
		{"Event Details", d.EventDetails},
	}
}

type TechnologyIntegration struct {
	TechStack        string
	IntegrationGoals string
	EventDetails     string
}

func (TechnologyIntegration) Kind() string { return "technology integration" }
func (d TechnologyIntegration) Fields() []Field {
	return []Field{
		{"Tech Stack", d.TechStack},
		{"Integration Goals", d.IntegrationGoals},
		{"Event Details", d.EventDetails},
	}
}

type ContentPartnership struct {
	ContentType  string
	AudienceSize string
	EventDetails string
}

func (ContentPartnership) Kind() string { return "content partnership" }
func (d ContentPartnership) Fields() []Field {
	return []Field{
		{"Content Type", d.ContentType},
		{"Audience Size", d.AudienceSize},
		{"Event Details", d.EventDetails},
	}
}

type Investment struct {
	InvestmentAmount string
	CompanyValuation string
	EventDetails     string
}

func (Investment) Kind() string { return "investment" }
func (d Investment) Fields() []Field {
	return []Field{
		{"Investment Amount", d.InvestmentAmount},
		{"Company Valuation", d.CompanyValuation},
		{"Event Details", d.EventDetails},
	}
}

type OtherPartnership struct {
	Subject      string
	EventDetails string
}

func (OtherPartnership) Kind() string { return "other" }
func (d OtherPartnership) Fields() []Field {
	return []Field{
		{"Subject", d.Subject},
		{"Event Details", d.EventDetails},
	}
}

// GeneralPartnership carries an unrecognised type through with its free text only.
type GeneralPartnership struct {
	Type         string
	EventDetails string
}

func (d GeneralPartnership) Kind() string { return d.Type }
func (d GeneralPartnership) Fields() []Field {
	return []Field{{"Event Details", d.EventDetails}}
}

// PartnershipRequest is the flat form body; Inquiry folds it into a category.
type PartnershipRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Mobile           Text   `json:"mobile"`
	PartnershipType  string `json:"partnershipType"`
	Location         string `json:"location"`
	DateTime         string `json:"dateTime"`
	PriceRange       Text   `json:"priceRange"`
	Currency         string `json:"currency"`
	EventDetails     string `json:"eventDetails"`
	Quantity         Text   `json:"quantity"`
	DeliveryAddress  string `json:"deliveryAddress"`
	CompanySize      Text   `json:"companySize"`
	PreferredProgram string `json:"preferredProgram"`
	TechStack        string `json:"techStack"`
	IntegrationGoals string `json:"integrationGoals"`
	ContentType      string `json:"contentType"`
	AudienceSize     Text   `json:"audienceSize"`
	InvestmentAmount Text   `json:"investmentAmount"`
	CompanyValuation Text   `json:"companyValuation"`
	Subject          string `json:"subject"`
}

type PartnershipInquiry struct {
	Name    string
	Email   string
	Mobile  string
	Details PartnershipDetails
}

func (r PartnershipRequest) Inquiry() (PartnershipInquiry, error) {
	if missing(r.Name, r.Email, r.PartnershipType) {
		return PartnershipInquiry{}, ErrRequiredFields
	}
	if err := checkEmail(r.Email); err != nil {
		return PartnershipInquiry{}, err
	}

	return PartnershipInquiry{
		Name:    r.Name,
		Email:   r.Email,
		Mobile:  r.Mobile.String(),
		Details: r.details(),
	}, nil
}

func (r PartnershipRequest) details() PartnershipDetails {
	switch strings.ToLower(strings.TrimSpace(r.PartnershipType)) {
	case "hosting event":
		return HostingEvent{r.Location, r.DateTime, r.PriceRange.String(), r.Currency, r.EventDetails}
	case "ordering merch":
		return OrderingMerch{r.Quantity.String(), r.DeliveryAddress, r.EventDetails}
	case "corporate wellness":
		return CorporateWellness{r.CompanySize.String(), r.PreferredProgram, r.Location, r.EventDetails}
	case "technology integration":
		return TechnologyIntegration{r.TechStack, r.IntegrationGoals, r.EventDetails}
	case "content partnership":
		return ContentPartnership{r.ContentType, r.AudienceSize.String(), r.EventDetails}
	case "investment":
		return Investment{r.InvestmentAmount.String(), r.CompanyValuation.String(), r.EventDetails}
	case "other":
		return OtherPartnership{r.Subject, r.EventDetails}
	default:
		return GeneralPartnership{Type: r.PartnershipType, EventDetails: r.EventDetails}
	}
}
