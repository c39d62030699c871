package calendly

import "time"

// Event is a scheduled Calendly event, reduced to what reconciliation needs.
type Event struct {
	URI       string `validate:"required,url"`
	Name      string
	StartTime time.Time `validate:"required"`
	Status    string
}

// QuestionAnswer is one booking-form question with the invitee's answer.
type QuestionAnswer struct {
	Question string
	Answer   string
}

// Invitee is a person booked into an Event.
type Invitee struct {
	Email     string
	Name      string
	Status    string
	Questions []QuestionAnswer
}

// InviteeStatusCanceled marks an invitee who canceled the booking.
const InviteeStatusCanceled = "canceled"

type pagination struct {
	NextPage *string `json:"next_page"`
}

type eventsPage struct {
	Collection []apiEvent `json:"collection"`
	Pagination pagination `json:"pagination"`
}

type apiEvent struct {
	URI       string `json:"uri"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	Status    string `json:"status"`
}

type inviteesPage struct {
	Collection []apiInvitee `json:"collection"`
	Pagination pagination   `json:"pagination"`
}

type apiInvitee struct {
	Email               string              `json:"email"`
	Name                string              `json:"name"`
	Status              string              `json:"status"`
	QuestionsAndAnswers []apiQuestionAnswer `json:"questions_and_answers"`
}

type apiQuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (a apiEvent) toEvent() Event {
	start, _ := time.Parse(time.RFC3339Nano, a.StartTime)
	return Event{
		URI:       a.URI,
		Name:      a.Name,
		StartTime: start,
		Status:    a.Status,
	}
}

func (a apiInvitee) toInvitee() Invitee {
	qs := make([]QuestionAnswer, 0, len(a.QuestionsAndAnswers))
	for _, qa := range a.QuestionsAndAnswers {
		qs = append(qs, QuestionAnswer{Question: qa.Question, Answer: qa.Answer})
	}
	return Invitee{
		Email:     a.Email,
		Name:      a.Name,
		Status:    a.Status,
		Questions: qs,
	}
}
