package bot

import (
	"errors"
	"fmt"
	"strings"

	coretelegram "github.com/sylni/helpbot/core/telegram"
	"github.com/sylni/helpbot/core/telegram/commands"
	tgformat "github.com/sylni/helpbot/core/telegram/format"
	tghelpers "github.com/sylni/helpbot/core/telegram/helpers"
	"github.com/sylni/helpbot/internal/errs"
	"github.com/sylni/helpbot/internal/messages"

	tele "gopkg.in/telebot.v4"
)

func (a *App) registerCommands(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.cmdStart,
		Description: "Почати спілкування",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     a.cmdHelp,
		Description: "Показати довідку",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.cmdCancel,
		Description: "Скасувати поточну дію",
	})
	reg.RegisterCommand("/block", commands.Command{
		Handler:      a.cmdBlock,
		Description:  "Заблокувати звернення",
		OperatorOnly: true,
	})
	reg.RegisterCommand("/unblock", commands.Command{
		Handler:      a.cmdUnblock,
		Description:  "Розблокувати звернення",
		OperatorOnly: true,
	})
	reg.RegisterCommand("/blocked_list", commands.Command{
		Handler:      a.cmdBlockedList,
		Description:  "Список заблокованих звернень",
		OperatorOnly: true,
	})
	reg.RegisterCommand("/form", commands.Command{
		Handler:      a.cmdForm,
		Description:  "Показати анкету звернення",
		OperatorOnly: true,
	})
}

func (a *App) cmdStart(c tele.Context) error {
	if a.IsOperator(c.Sender().ID) {
		return tghelpers.SendHTML(c, messages.OperatorGreeting)
	}
	if !isPrivate(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.engine.HandleStart(ctx, eventFrom(c))
}

func (a *App) cmdHelp(c tele.Context) error {
	text := messages.HelpBasic
	if a.IsOperator(c.Sender().ID) {
		text += messages.HelpOperator
	}
	text += messages.HelpFooter
	return tghelpers.SendHTML(c, text)
}

func (a *App) cmdCancel(c tele.Context) error {
	if a.IsOperator(c.Sender().ID) || !isPrivate(c) {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	return a.engine.HandleCancel(ctx, eventFrom(c))
}

// caseIDArg extracts the case id argument of an operator command.
// Case ids contain a space, so the whole payload is the argument.
func caseIDArg(c tele.Context) string {
	msg := c.Message()
	if msg == nil {
		return ""
	}
	return strings.TrimSpace(msg.Payload)
}

func (a *App) cmdBlock(c tele.Context) error {
	caseID := caseIDArg(c)
	if caseID == "" {
		return tghelpers.SendHTML(c, fmt.Sprintf(messages.CaseIDRequired, "/block"))
	}
	ctx := tghelpers.BuildContext(c)
	changed, err := a.access.Block(ctx, caseID)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			return tghelpers.SendHTML(c, fmt.Sprintf(messages.CaseNotFound, tgformat.EscapeHTML(caseID)))
		}
		return err
	}
	if !changed {
		return tghelpers.SendHTML(c, fmt.Sprintf(messages.BlockAlready, caseID))
	}
	return tghelpers.SendHTML(c, fmt.Sprintf(messages.BlockOK, caseID))
}

func (a *App) cmdUnblock(c tele.Context) error {
	caseID := caseIDArg(c)
	if caseID == "" {
		return tghelpers.SendHTML(c, fmt.Sprintf(messages.CaseIDRequired, "/unblock"))
	}
	ctx := tghelpers.BuildContext(c)
	changed, err := a.access.Unblock(ctx, caseID)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			return tghelpers.SendHTML(c, fmt.Sprintf(messages.CaseNotFound, tgformat.EscapeHTML(caseID)))
		}
		return err
	}
	if !changed {
		return tghelpers.SendHTML(c, fmt.Sprintf(messages.UnblockAlready, caseID))
	}
	return tghelpers.SendHTML(c, fmt.Sprintf(messages.UnblockOK, caseID))
}

func (a *App) cmdBlockedList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	blocked, err := a.access.ListBlocked(ctx)
	if err != nil {
		return err
	}
	if len(blocked) == 0 {
		return tghelpers.SendHTML(c, messages.BlockedListEmpty)
	}
	b := strings.Builder{}
	b.WriteString(messages.BlockedListHeader)
	for _, caseID := range blocked {
		b.WriteString("\n• <code>")
		b.WriteString(caseID)
		b.WriteString("</code>")
	}
	return tghelpers.SendHTML(c, b.String())
}

func (a *App) cmdForm(c tele.Context) error {
	caseID := caseIDArg(c)
	if caseID == "" {
		return tghelpers.SendHTML(c, fmt.Sprintf(messages.CaseIDRequired, "/form"))
	}
	ctx := tghelpers.BuildContext(c)
	record, err := a.cases.ByCaseID(ctx, caseID)
	if err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			return tghelpers.SendHTML(c, fmt.Sprintf(messages.CaseNotFound, tgformat.EscapeHTML(caseID)))
		}
		return err
	}

	card := fmt.Sprintf(`📋 <b>Справа:</b> <code>%s</code>

👤 <b>Ім'я:</b> %s
📅 <b>Вік:</b> %s
📍 <b>Місцезнаходження:</b> %s
🔍 <b>Деталі події:</b> %s
🆘 <b>Тип допомоги:</b> %s
📝 <b>Опис:</b> <i>%s</i>`,
		record.CaseID,
		tgformat.OrDash(record.Name),
		tgformat.IntOrDash(record.Age),
		tgformat.OrDash(record.Location),
		tgformat.OrDash(record.EventDetails),
		tgformat.OrDash(record.HelpType),
		tgformat.OrDash(record.Description),
	)
	return tghelpers.SendHTML(c, card)
}
