package entity

// GatewayConfig configuración estructurada de una pasarela de pago.
// Se persiste como JSON dentro del documento, nunca como texto opaco.
type GatewayConfig struct {
	Mode       string `json:"mode" validate:"omitempty,oneof=sandbox live"`
	PublicKey  string `json:"public_key" validate:"omitempty,max=255"`
	SecretKey  string `json:"secret_key" validate:"omitempty,max=255"`
	WebhookURL string `json:"webhook_url" validate:"omitempty,url,max=500"`
	Currency   string `json:"currency" validate:"omitempty,len=3"`
}

// PaymentGateway medio/pasarela de pago configurable (efectivo, tarjeta, Stripe...).
type PaymentGateway struct {
	Name   string        `json:"name" validate:"required,max=100"`
	Driver string        `json:"driver" validate:"required,oneof=cash card stripe paypal manual"`
	Active bool          `json:"active"`
	Config GatewayConfig `json:"config"`
}
