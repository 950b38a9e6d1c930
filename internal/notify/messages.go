package notify

// PhaseMessage is the help text shown when a workflow phase fails.
// The SPA renders Danish copy; the retry label names the button that
// re-triggers the failed step.
type PhaseMessage struct {
	Title      string
	Help       string
	RetryLabel string
}

var phaseMessages = map[string]PhaseMessage{
	"job-save": {
		Title:      "Jobopslaget kunne ikke gemmes",
		Help:       "Vi kunne ikke gemme jobopslaget. Tjek din forbindelse og prøv igen.",
		RetryLabel: "Gem igen",
	},
	"user-fetch": {
		Title:      "Din profil kunne ikke hentes",
		Help:       "Vi kunne ikke hente dine profiloplysninger. Prøv at genindlæse siden.",
		RetryLabel: "Genindlæs",
	},
	"generation": {
		Title:      "Ansøgningen kunne ikke genereres",
		Help:       "AI-tjenesten svarede ikke i tide. Dit jobopslag er gemt - prøv at generere igen.",
		RetryLabel: "Generér igen",
	},
	"letter-save": {
		Title:      "Ansøgningen kunne ikke gemmes",
		Help:       "Din ansøgning blev genereret, men kunne ikke gemmes. Prøv igen.",
		RetryLabel: "Gem ansøgning",
	},
	"cv-parsing": {
		Title:      "CV'et kunne ikke læses",
		Help:       "Vi kunne ikke udtrække tekst fra dit CV. Prøv en anden fil (PDF eller DOCX).",
		RetryLabel: "Upload igen",
	},
}

var fallbackMessage = PhaseMessage{
	Title:      "Noget gik galt",
	Help:       "Der opstod en uventet fejl. Prøv igen om lidt.",
	RetryLabel: "Prøv igen",
}

// TextFor returns the help text for a phase, falling back to a generic
// message for phases without dedicated copy.
func TextFor(phase string) PhaseMessage {
	if m, ok := phaseMessages[phase]; ok {
		return m
	}
	return fallbackMessage
}
