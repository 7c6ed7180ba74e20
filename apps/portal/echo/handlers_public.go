package echoportal

import (
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csamedu/portal/core"
)

// Public marketing endpoints: unauthenticated reads proxied from the
// backend, plus the contact form.

func (s *server) testimonials(ctx echo.Context) error {
	items, err := s.deps.API.ApprovedTestimonials(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, items)
}

func (s *server) news(ctx echo.Context) error {
	items, err := s.deps.API.News(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, items)
}

func (s *server) blog(ctx echo.Context) error {
	posts, err := s.deps.API.PublishedPosts(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, posts)
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (cr *ContactRequest) Validate() error {
	cr.Name = core.CleanString(cr.Name)
	cr.Email = core.CleanString(cr.Email, true /* lower */)
	cr.Subject = core.CleanString(cr.Subject)
	cr.Message = core.CleanString(cr.Message)
	return core.Validate.Struct(cr)
}

// contact mails the school office. Delivery is async; the visitor gets an
// immediate acknowledgement.
func (s *server) contact(ctx echo.Context) error {
	var data ContactRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ContactRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	replyTo := mail.Address{Name: data.Name, Address: data.Email}
	s.deps.MailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{s.deps.Conf.ContactAddress()},
		ReplyTo: &replyTo,
		Subject: "Contact form: " + data.Subject,
		Body:    data.Message + "\n\n-- \n" + data.Name + " <" + data.Email + ">",
	})

	return ctx.JSON(http.StatusAccepted, echo.Map{"message": "thank you, we will get back to you"})
}
