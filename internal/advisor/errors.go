package advisor

import (
	"errors"
	"fmt"
)

// Kind classifies why an advisory call failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyResponse
	KindCredential
	KindCall
)

func (k Kind) String() string {
	switch k {
	case KindEmptyResponse:
		return "empty_response"
	case KindCredential:
		return "credential"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// ErrNoContent is wrapped when the model answered without any text.
var ErrNoContent = errors.New("no text response received from the model")

// credentialMarker is how the API reports an invalid or unselected key.
const credentialMarker = "Requested entity was not found."

const (
	CredentialText = "Error: Parece que la clave API es inválida o no ha sido seleccionada. Por favor, selecciona una clave API válida para continuar. [ai.google.dev/gemini-api/docs/billing]"
	UnknownText    = "Error desconocido al obtener la solución. Por favor, inténtalo de nuevo."
)

// CallText is the display template for a failure carrying message msg.
func CallText(msg string) string {
	return fmt.Sprintf("Error al obtener la solución: %s. Por favor, inténtalo de nuevo.", msg)
}

// Error is the failure returned by Advise. Error() is the string shown to the
// user; the underlying cause stays reachable through Unwrap.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindCredential:
		return CredentialText
	case KindEmptyResponse, KindCall:
		if e.Err == nil || e.Err.Error() == "" {
			return UnknownText
		}
		return CallText(e.Err.Error())
	default:
		return UnknownText
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Describe converts any error into the text appended to the conversation.
func Describe(err error) string {
	if err == nil {
		return UnknownText
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	if msg := err.Error(); msg != "" {
		return CallText(msg)
	}
	return UnknownText
}
