package mail

import (
	"fmt"
	"strings"

	"github.com/trocalar/TrocaLar/internal/pkg/env"
)

func publicBase() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}

// SendActivationMail sends the account activation link to a new user.
func SendActivationMail(to, name, token string) error {
	link := fmt.Sprintf("%s/ativar-conta?token=%s", publicBase(), token)
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Bem-vindo(a) ao TrocaLar! Para ativar sua conta, clique no link abaixo:</p>
<p><a href="%s">Ativar minha conta</a></p>
<p>Se você não criou esta conta, ignore este e-mail.</p>
<p>Equipe TrocaLar</p>`, name, link)
	return SendMail(to, "TrocaLar - Ative sua conta", body)
}

// SendEmailChangeMail sends the confirmation link for a pending e-mail change
// to the new address.
func SendEmailChangeMail(to, name, token string) error {
	link := fmt.Sprintf("%s/confirmar-email?token=%s", publicBase(), token)
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Recebemos um pedido para alterar o e-mail da sua conta TrocaLar para este endereço.</p>
<p><a href="%s">Confirmar novo e-mail</a></p>
<p>Se você não solicitou esta alteração, ignore este e-mail.</p>
<p>Equipe TrocaLar</p>`, name, link)
	return SendMail(to, "TrocaLar - Confirme seu novo e-mail", body)
}

// SendProposalReceivedMail notifies a listing owner about a new swap proposal.
func SendProposalReceivedMail(to, ownerName, proposerName, listingTitle string) error {
	link := fmt.Sprintf("%s/propostas/recebidas", publicBase())
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>%s enviou uma proposta de troca para o seu imóvel <strong>%s</strong>.</p>
<p><a href="%s">Ver propostas recebidas</a></p>
<p>Equipe TrocaLar</p>`, ownerName, proposerName, listingTitle, link)
	return SendMail(to, "TrocaLar - Você recebeu uma proposta de troca", body)
}

// SendProposalRespondedMail notifies the proposer about a response.
func SendProposalRespondedMail(to, proposerName, listingTitle string, accepted bool) error {
	verdict := "recusada"
	if accepted {
		verdict = "aceita"
	}
	link := fmt.Sprintf("%s/propostas/enviadas", publicBase())
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Sua proposta de troca para o imóvel <strong>%s</strong> foi <strong>%s</strong>.</p>
<p><a href="%s">Ver minhas propostas</a></p>
<p>Equipe TrocaLar</p>`, proposerName, listingTitle, verdict, link)
	return SendMail(to, "TrocaLar - Sua proposta foi respondida", body)
}

// SendPaymentConfirmedMail notifies a subscriber about a confirmed payment.
func SendPaymentConfirmedMail(to, name, planName string, amount float64) error {
	body := fmt.Sprintf(`<p>Olá %s,</p>
<p>Recebemos o pagamento de <strong>R$ %.2f</strong> da sua assinatura do plano <strong>%s</strong>.</p>
<p>Obrigado por apoiar o TrocaLar!</p>
<p>Equipe TrocaLar</p>`, name, amount, planName)
	return SendMail(to, "TrocaLar - Pagamento confirmado", body)
}
