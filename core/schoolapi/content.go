package schoolapi

import (
	"context"
	"time"
)

// Public, unauthenticated reads used by the marketing pages.

type (
	Testimonial struct {
		ID       string `json:"id"`
		Author   string `json:"author"`
		Quote    string `json:"quote"`
		Approved bool   `json:"approved"`
	}

	NewsItem struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Body        string    `json:"body"`
		PublishedAt time.Time `json:"published_at"`
	}

	BlogPost struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Slug        string    `json:"slug"`
		Excerpt     string    `json:"excerpt"`
		PublishedAt time.Time `json:"published_at"`
	}
)

func (c *Client) ApprovedTestimonials(ctx context.Context) ([]Testimonial, error) {
	var out []Testimonial
	return out, c.get(ctx, "/testimonials/approved", "", &out)
}

func (c *Client) News(ctx context.Context) ([]NewsItem, error) {
	var out []NewsItem
	return out, c.get(ctx, "/news", "", &out)
}

func (c *Client) PublishedPosts(ctx context.Context) ([]BlogPost, error) {
	var out []BlogPost
	return out, c.get(ctx, "/blog/published", "", &out)
}
