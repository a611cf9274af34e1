package valueobject

import "fmt"

// ---------------------------------------------------------------------------
// ActionType – how the institution reached out
// ---------------------------------------------------------------------------

// ActionType is the channel of a collection action. Strategies reuse it to
// name the action they schedule.
type ActionType struct {
	value string
}

const (
	actionTypePhoneCall        = "PHONE_CALL"
	actionTypeSMS              = "SMS"
	actionTypeEmail            = "EMAIL"
	actionTypeFieldVisit       = "FIELD_VISIT"
	actionTypeLetter           = "LETTER"
	actionTypeDemandNotice     = "DEMAND_NOTICE"
	actionTypeLegalNotice      = "LEGAL_NOTICE"
	actionTypeGuarantorContact = "GUARANTOR_CONTACT"
	actionTypeGroupLeader      = "GROUP_LEADER"
	actionTypeMessaging        = "MESSAGING"
)

var (
	ActionTypePhoneCall        = ActionType{value: actionTypePhoneCall}
	ActionTypeSMS              = ActionType{value: actionTypeSMS}
	ActionTypeEmail            = ActionType{value: actionTypeEmail}
	ActionTypeFieldVisit       = ActionType{value: actionTypeFieldVisit}
	ActionTypeLetter           = ActionType{value: actionTypeLetter}
	ActionTypeDemandNotice     = ActionType{value: actionTypeDemandNotice}
	ActionTypeLegalNotice      = ActionType{value: actionTypeLegalNotice}
	ActionTypeGuarantorContact = ActionType{value: actionTypeGuarantorContact}
	ActionTypeGroupLeader      = ActionType{value: actionTypeGroupLeader}
	ActionTypeMessaging        = ActionType{value: actionTypeMessaging}
)

var validActionTypes = map[string]ActionType{
	actionTypePhoneCall:        ActionTypePhoneCall,
	actionTypeSMS:              ActionTypeSMS,
	actionTypeEmail:            ActionTypeEmail,
	actionTypeFieldVisit:       ActionTypeFieldVisit,
	actionTypeLetter:           ActionTypeLetter,
	actionTypeDemandNotice:     ActionTypeDemandNotice,
	actionTypeLegalNotice:      ActionTypeLegalNotice,
	actionTypeGuarantorContact: ActionTypeGuarantorContact,
	actionTypeGroupLeader:      ActionTypeGroupLeader,
	actionTypeMessaging:        ActionTypeMessaging,
}

// NewActionType creates an ActionType from a raw string.
func NewActionType(s string) (ActionType, error) {
	v, ok := validActionTypes[s]
	if !ok {
		return ActionType{}, fmt.Errorf("%w: invalid action type %q", ErrValidation, s)
	}
	return v, nil
}

func (t ActionType) String() string             { return t.value }
func (t ActionType) IsZero() bool               { return t.value == "" }
func (t ActionType) Equal(other ActionType) bool { return t.value == other.value }

// ---------------------------------------------------------------------------
// ActionOutcome
// ---------------------------------------------------------------------------

// ActionOutcome is what the action produced.
type ActionOutcome struct {
	value string
}

const (
	outcomeContacted       = "CONTACTED"
	outcomeNoAnswer        = "NO_ANSWER"
	outcomeUnreachable     = "UNREACHABLE"
	outcomeWrongContact    = "WRONG_CONTACT"
	outcomePromisedToPay   = "PROMISED_TO_PAY"
	outcomePaymentReceived = "PAYMENT_RECEIVED"
	outcomeRefused         = "REFUSED"
	outcomeNotFound        = "NOT_FOUND"
	outcomeDelivered       = "DELIVERED"
	outcomeRescheduled     = "RESCHEDULED"
)

var (
	ActionOutcomeContacted       = ActionOutcome{value: outcomeContacted}
	ActionOutcomeNoAnswer        = ActionOutcome{value: outcomeNoAnswer}
	ActionOutcomeUnreachable     = ActionOutcome{value: outcomeUnreachable}
	ActionOutcomeWrongContact    = ActionOutcome{value: outcomeWrongContact}
	ActionOutcomePromisedToPay   = ActionOutcome{value: outcomePromisedToPay}
	ActionOutcomePaymentReceived = ActionOutcome{value: outcomePaymentReceived}
	ActionOutcomeRefused         = ActionOutcome{value: outcomeRefused}
	ActionOutcomeNotFound        = ActionOutcome{value: outcomeNotFound}
	ActionOutcomeDelivered       = ActionOutcome{value: outcomeDelivered}
	ActionOutcomeRescheduled     = ActionOutcome{value: outcomeRescheduled}
)

var validActionOutcomes = map[string]ActionOutcome{
	outcomeContacted:       ActionOutcomeContacted,
	outcomeNoAnswer:        ActionOutcomeNoAnswer,
	outcomeUnreachable:     ActionOutcomeUnreachable,
	outcomeWrongContact:    ActionOutcomeWrongContact,
	outcomePromisedToPay:   ActionOutcomePromisedToPay,
	outcomePaymentReceived: ActionOutcomePaymentReceived,
	outcomeRefused:         ActionOutcomeRefused,
	outcomeNotFound:        ActionOutcomeNotFound,
	outcomeDelivered:       ActionOutcomeDelivered,
	outcomeRescheduled:     ActionOutcomeRescheduled,
}

// NewActionOutcome creates an ActionOutcome from a raw string.
func NewActionOutcome(s string) (ActionOutcome, error) {
	v, ok := validActionOutcomes[s]
	if !ok {
		return ActionOutcome{}, fmt.Errorf("%w: invalid action outcome %q", ErrValidation, s)
	}
	return v, nil
}

func (o ActionOutcome) String() string                { return o.value }
func (o ActionOutcome) IsZero() bool                  { return o.value == "" }
func (o ActionOutcome) Equal(other ActionOutcome) bool { return o.value == other.value }

// ReachedBorrower reports whether the borrower was actually spoken to.
func (o ActionOutcome) ReachedBorrower() bool {
	switch o.value {
	case outcomeContacted, outcomePromisedToPay, outcomePaymentReceived, outcomeRefused:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// ContactMethod
// ---------------------------------------------------------------------------

// ContactMethod records how the borrower was reached.
type ContactMethod struct {
	value string
}

const (
	contactMethodPhone     = "PHONE"
	contactMethodInPerson  = "IN_PERSON"
	contactMethodSMS       = "SMS"
	contactMethodEmail     = "EMAIL"
	contactMethodPost      = "POST"
	contactMethodMessaging = "MESSAGING"
)

var (
	ContactMethodPhone     = ContactMethod{value: contactMethodPhone}
	ContactMethodInPerson  = ContactMethod{value: contactMethodInPerson}
	ContactMethodSMS       = ContactMethod{value: contactMethodSMS}
	ContactMethodEmail     = ContactMethod{value: contactMethodEmail}
	ContactMethodPost      = ContactMethod{value: contactMethodPost}
	ContactMethodMessaging = ContactMethod{value: contactMethodMessaging}
)

var validContactMethods = map[string]ContactMethod{
	contactMethodPhone:     ContactMethodPhone,
	contactMethodInPerson:  ContactMethodInPerson,
	contactMethodSMS:       ContactMethodSMS,
	contactMethodEmail:     ContactMethodEmail,
	contactMethodPost:      ContactMethodPost,
	contactMethodMessaging: ContactMethodMessaging,
}

// NewContactMethod creates a ContactMethod from a raw string. An empty
// string yields the zero value.
func NewContactMethod(s string) (ContactMethod, error) {
	if s == "" {
		return ContactMethod{}, nil
	}
	v, ok := validContactMethods[s]
	if !ok {
		return ContactMethod{}, fmt.Errorf("%w: invalid contact method %q", ErrValidation, s)
	}
	return v, nil
}

func (m ContactMethod) String() string                { return m.value }
func (m ContactMethod) IsZero() bool                  { return m.value == "" }
func (m ContactMethod) Equal(other ContactMethod) bool { return m.value == other.value }
