package draft

import (
	"regexp"

	"github.com/okwaro/safaribook/internal/apierror"
	"github.com/okwaro/safaribook/internal/domain"
	"github.com/okwaro/safaribook/internal/timezone"
)

var (
	namePattern        = regexp.MustCompile(`^[A-Za-z][A-Za-z ]*$`)
	countryCodePattern = regexp.MustCompile(`^\+[1-9]\d{0,3}$`)
	phonePattern       = regexp.MustCompile(`^\d{7,15}$`)
)

// Input is the raw form state a caller submits for assembly.
type Input struct {
	SessionID    string
	UserID       string
	ResourceID   string
	ResourceType string
	Contact      domain.Contact
	Stay         domain.StayInterval
	Group        domain.GroupComposition
	Pickup       domain.PickupLocation
	LocationID   string
	Amount       float64
	Currency     string
}

// Independently testable validation predicates. IsValid is their
// conjunction.

func ResourcePresent(in Input) bool    { return in.ResourceID != "" }
func ResourceTyped(in Input) bool      { return in.ResourceType != "" }
func StayValid(in Input) bool          { return in.Stay.Valid() }
func PickupValid(in Input) bool        { return in.Pickup.Valid() }
func GroupValid(in Input) bool         { return in.Group.Size() > 0 }
func ContactNameValid(in Input) bool   { return namePattern.MatchString(in.Contact.Name) }
func ContactPhoneValid(in Input) bool {
	return countryCodePattern.MatchString(in.Contact.CountryCode) &&
		phonePattern.MatchString(in.Contact.Phone)
}

func IsValid(in Input) bool {
	return ResourcePresent(in) && ResourceTyped(in) && StayValid(in) &&
		PickupValid(in) && GroupValid(in) && ContactNameValid(in) && ContactPhoneValid(in)
}

// Violations lists per-field failures for the current input.
func Violations(in Input) map[string][]string {
	fields := map[string][]string{}
	if !ResourcePresent(in) {
		fields["resource_id"] = append(fields["resource_id"], "required")
	}
	if !ResourceTyped(in) {
		fields["resource_type"] = append(fields["resource_type"], "required")
	}
	if !StayValid(in) {
		fields["stay"] = append(fields["stay"], "start and end dates required, end must not precede start")
	}
	if !PickupValid(in) {
		fields["pickup"] = append(fields["pickup"], "known place or address required")
	}
	if !GroupValid(in) {
		fields["group"] = append(fields["group"], "at least one traveler required")
	}
	if !ContactNameValid(in) {
		fields["contact_name"] = append(fields["contact_name"], "letters and spaces only")
	}
	if !ContactPhoneValid(in) {
		fields["contact_phone"] = append(fields["contact_phone"], "country code and 7-15 digit number required")
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Assemble validates the input and builds the wire payload. The stay is
// widened to whole days in the resolved zone before UTC conversion.
// Assemble never submits anything.
func Assemble(in Input) (*domain.BookingDraft, error) {
	if fields := Violations(in); fields != nil {
		return nil, apierror.Validation("booking draft is incomplete", fields)
	}

	zone := timezone.Resolve(in.LocationID, in.Pickup.Country)
	start, end, err := timezone.DayBounds(in.Stay.StartDate, in.Stay.EndDate, zone)
	if err != nil {
		return nil, apierror.Validation("stay dates could not be converted", map[string][]string{
			"stay": {err.Error()},
		})
	}

	return &domain.BookingDraft{
		SessionID:    in.SessionID,
		UserID:       in.UserID,
		ResourceID:   in.ResourceID,
		ResourceType: in.ResourceType,
		Contact:      in.Contact,
		Schedule: domain.Schedule{
			StartDateTime: start,
			EndDateTime:   end,
			Timezone:      zone,
		},
		Group:         in.Group,
		Pickup:        in.Pickup,
		PaymentAmount: in.Amount,
		Currency:      in.Currency,
	}, nil
}
