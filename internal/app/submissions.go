package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"

	"github.com/okian/hackathon/internal/adapters/repository"
	"github.com/okian/hackathon/internal/domain/model"
	apperrors "github.com/okian/hackathon/internal/errors"
	"github.com/okian/hackathon/pkg/metrics"
)

// Document timestamps of one team are strictly increasing by at least this
// much.
const documentTick = time.Microsecond

// Submit appends a document to team's history. Documents are immutable;
// the latest one is what judges look at.
func (s *Service) Submit(ctx context.Context, title, team, submitter, docTitle, body string, now time.Time) (d model.Document, err error) {
	ctx, done := s.operation(ctx, "submit_document", true,
		attribute.String("hackathon", title), attribute.String("team", team), attribute.String("submitter", submitter))
	defer done(&err)

	if err := required("title", docTitle); err != nil {
		return model.Document{}, err
	}
	now = at(now)

	err = s.update(ctx, "submit_document", func(tx repository.Tx) error {
		if _, err := getTeam(tx, title, team); err != nil {
			return err
		}
		m, member, err := membership(tx, title, submitter)
		if err != nil {
			return err
		}
		if !member || m.Team != team {
			return apperrors.ErrNotTeamMember.WithMetadata("hackathon", title, "team", team, "user", submitter)
		}
		history, err := tx.ListDocuments(title, team)
		if err != nil {
			return err
		}
		created := now
		if n := len(history); n > 0 {
			if floor := history[n-1].CreatedAt.Add(documentTick); created.Before(floor) {
				created = floor
			}
		}
		d = model.Document{
			ID:        s.newID(),
			Hackathon: title,
			Team:      team,
			Title:     docTitle,
			Body:      body,
			CreatedAt: created,
		}
		return tx.InsertDocument(d)
	})
	if err != nil {
		return model.Document{}, err
	}
	metrics.RecordDocumentSubmitted()
	return d, nil
}

// Documents lists the submissions of team, oldest first.
func (s *Service) Documents(ctx context.Context, title, team string) (ds []model.Document, err error) {
	ctx, done := s.operation(ctx, "list_documents", false,
		attribute.String("hackathon", title), attribute.String("team", team))
	defer done(&err)

	err = s.view(ctx, "list_documents", func(tx repository.Tx) error {
		if _, err := getTeam(tx, title, team); err != nil {
			return err
		}
		ds, err = tx.ListDocuments(title, team)
		return err
	})
	return ds, err
}

// LatestDocument returns the newest submission of team.
func (s *Service) LatestDocument(ctx context.Context, title, team string) (model.Document, error) {
	ds, err := s.Documents(ctx, title, team)
	if err != nil {
		return model.Document{}, err
	}
	if len(ds) == 0 {
		return model.Document{}, apperrors.ErrDocumentNotFound.WithMetadata("hackathon", title, "team", team)
	}
	return ds[len(ds)-1], nil
}

// FindDocumentByTitle returns the oldest document of team whose title
// contains fragment, ignoring case. ok is false when nothing matches.
func (s *Service) FindDocumentByTitle(ctx context.Context, title, team, fragment string) (d model.Document, ok bool, err error) {
	if err := required("fragment", fragment); err != nil {
		return model.Document{}, false, err
	}
	ds, err := s.Documents(ctx, title, team)
	if err != nil {
		return model.Document{}, false, err
	}
	fold := cases.Fold()
	needle := fold.String(fragment)
	for _, doc := range ds {
		if strings.Contains(fold.String(doc.Title), needle) {
			return doc, true, nil
		}
	}
	return model.Document{}, false, nil
}

// Document returns a document by id.
func (s *Service) Document(ctx context.Context, id string) (d model.Document, err error) {
	ctx, done := s.operation(ctx, "get_document", false, attribute.String("document", id))
	defer done(&err)

	err = s.view(ctx, "get_document", func(tx repository.Tx) error {
		d, err = getDocument(tx, id)
		return err
	})
	return d, err
}
