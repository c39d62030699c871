package dispatch

import (
	"fmt"
	"strings"
)

// FallbackFirstName greets entries that carry no name.
const FallbackFirstName = "amigo/a"

// MessageBuilder renders the outreach text for one entry.
type MessageBuilder func(firstName, program string) string

// FirstName returns the first whitespace-delimited token of name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return FallbackFirstName
	}
	return fields[0]
}

// DefaultMessage is the reactivation text sent about a month after the call.
func DefaultMessage(firstName, program string) string {
	return fmt.Sprintf("Hola, %s 😊 ¿qué tal?\n\n", firstName) +
		"Soy Lucía, no sé si te acuerdas de mí, hablamos hace aproximadamente un mes cuando agendaste una llamada con nosotros.\n\n" +
		fmt.Sprintf("Te escribo porque justo ahora se nos han quedado unas cuantas plazas libres en la formación de *%s* y pensé directamente en ti.\n\n", program) +
		"Y precisamente por eso creo que ahora podría venirte perfecto, porque además esta semana tenemos disponible un descuento especial para nuevas incorporaciones.\n\n" +
		"Si te interesa, dímelo y te cuento todos los detalles encantada 😊."
}
