package temporder

import (
	"encoding/json"
	"strings"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"
)

const submissionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["nombre_cliente", "detalles_pedido"],
  "properties": {
    "nombre_cliente": { "type": "string", "minLength": 1 },
    "direccion_cliente": { "type": ["string", "null"] },
    "telefono_cliente": { "type": ["string", "null"] },
    "total": { "type": ["number", "null"], "minimum": 0 },
    "detalles_pedido": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": { "type": "integer", "minimum": 1 },
          "price": { "type": "number", "minimum": 0 },
          "quantity": { "type": "integer", "minimum": 1 }
        }
      }
    }
  }
}`

var submissionLoader = gojsonschema.NewStringLoader(submissionSchema)

type submission struct {
	Name    string           `json:"nombre_cliente"`
	Address *string          `json:"direccion_cliente"`
	Phone   *string          `json:"telefono_cliente"`
	Details json.RawMessage  `json:"detalles_pedido"`
	Total   *decimal.Decimal `json:"total"`
}

// DecodeSubmission validates a public intake body and turns it into a
// command. detalles_pedido is carried over byte for byte.
func DecodeSubmission(body []byte) (interfaces.SubmitTempOrderCommand, error) {
	result, err := gojsonschema.Validate(submissionLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return interfaces.SubmitTempOrderCommand{}, domain.Validation("request body must be a JSON object")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return interfaces.SubmitTempOrderCommand{}, domain.Validation("incomplete order data: " + strings.Join(msgs, "; "))
	}

	var s submission
	if err := json.Unmarshal(body, &s); err != nil {
		return interfaces.SubmitTempOrderCommand{}, domain.Validation("incomplete order data")
	}

	cmd := interfaces.SubmitTempOrderCommand{
		CustomerName: s.Name,
		Details:      s.Details,
		Total:        decimal.Zero,
	}
	if s.Address != nil {
		cmd.Address = *s.Address
	}
	if s.Phone != nil {
		cmd.Phone = *s.Phone
	}
	if s.Total != nil {
		cmd.Total = *s.Total
	}
	return cmd, nil
}
