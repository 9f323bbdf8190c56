package pack

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/llaa33219/plakker-web-sub000/domain"
	"github.com/llaa33219/plakker-web-sub000/imagenorm"
	"github.com/llaa33219/plakker-web-sub000/sanitize"
	"github.com/llaa33219/plakker-web-sub000/store"
)

var acceptedMediaTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/webp": true,
}

type File struct {
	FileName  string
	MediaType string
	Data      []byte
}

type Submission struct {
	ClientId    string
	Title       string
	Creator     string
	CreatorLink string
	Thumbnail   File
	Images      []File
}

type Result struct {
	Pack    domain.Pack
	Message string
}

type itemResult struct {
	fileName string
	verdict  domain.Verdict
	image    imagenorm.Image
}

func (p *packService) Submit(ctx context.Context, sub Submission) (res Result, err error) {
	if !p.moderation.Configured() {
		return res, ErrNotConfigured
	}
	admission := p.quota.CheckAdmission(ctx, sub.ClientId, p.quota.DailyLimit())
	if !admission.Allowed {
		return res, &AdmissionError{Admission: admission}
	}

	draft, err := p.sanitize(sub)
	if err != nil {
		return
	}

	thumbnail, err := p.checkThumbnail(ctx, sub.Thumbnail)
	if err != nil {
		return
	}

	results := p.processItems(ctx, sub.Images)
	validation := domain.Validation{TotalSubmitted: len(sub.Images), RejectedItems: []domain.RejectedItem{}}
	approved := make([]imagenorm.Image, 0, len(results))
	for _, r := range results {
		if r.verdict.Approved {
			validation.Approve()
			approved = append(approved, r.image)
		} else {
			validation.Reject(r.fileName, r.verdict.Reason)
		}
	}
	if validation.Approved < domain.MinItems {
		return res, &ValidationError{
			Message:    fmt.Sprintf("at least %d images must pass verification, %d of %d passed", domain.MinItems, validation.Approved, validation.TotalSubmitted),
			Validation: &validation,
		}
	}

	draft.Validation = validation
	// a started commit and its quota increment finish even if the client goes away
	commitCtx := context.WithoutCancel(ctx)
	pack, err := p.commit(commitCtx, draft, thumbnail, approved)
	if err != nil {
		return
	}
	p.quota.CommitIncrement(commitCtx, sub.ClientId)
	log.Info("pack submitted",
		zap.String("packId", pack.Id),
		zap.Int("approved", validation.Approved),
		zap.Int("rejected", validation.Rejected),
	)
	return Result{
		Pack:    pack,
		Message: fmt.Sprintf("Pack uploaded: %d of %d images approved", validation.Approved, validation.TotalSubmitted),
	}, nil
}

func (p *packService) sanitize(sub Submission) (draft domain.Pack, err error) {
	draft.Title = sanitize.Text(sub.Title, sanitize.TitleMax)
	draft.Creator = sanitize.Text(sub.Creator, sanitize.CreatorMax)
	draft.CreatorLink = sanitize.Link(sub.CreatorLink)
	if draft.Title == "" || draft.Creator == "" || len(sub.Thumbnail.Data) == 0 {
		return draft, validationErr("title, creator and thumbnail are required")
	}
	if sanitize.Length(draft.Title) < sanitize.TitleMin {
		return draft, validationErr("title must be at least %d characters", sanitize.TitleMin)
	}
	if sanitize.Length(draft.Creator) < sanitize.CreatorMin {
		return draft, validationErr("creator must be at least %d characters", sanitize.CreatorMin)
	}
	if len(sub.Images) < domain.MinItems {
		return draft, validationErr("at least %d images are required", domain.MinItems)
	}
	if len(sub.Images) > p.conf.MaxItems {
		return draft, validationErr("at most %d images are allowed", p.conf.MaxItems)
	}
	if !acceptedMediaType(sub.Thumbnail.MediaType) {
		return draft, validationErr("thumbnail must be a png, jpeg, gif or webp image")
	}
	for _, f := range sub.Images {
		if !acceptedMediaType(f.MediaType) {
			return draft, validationErr("%s: only png, jpeg, gif and webp images are allowed", sanitize.FileName(f.FileName))
		}
	}
	return draft, nil
}

func acceptedMediaType(declared string) bool {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	return acceptedMediaTypes[mediaType]
}

func (p *packService) checkThumbnail(ctx context.Context, thumbnail File) (image imagenorm.Image, err error) {
	verdict := p.moderation.Classify(ctx, thumbnail.Data, thumbnail.MediaType, "thumbnail")
	if !verdict.Approved {
		return image, validationErr("thumbnail failed verification: %s", verdict.Reason)
	}
	if image, err = p.normalizer.Normalize(thumbnail.Data, imagenorm.ThumbnailSize, imagenorm.ThumbnailSize); err != nil {
		return image, validationErr("thumbnail could not be processed: %v", err)
	}
	return image, nil
}

// processItems classifies and normalizes every image, results keep the submission order
func (p *packService) processItems(ctx context.Context, files []File) []itemResult {
	results := make([]itemResult, len(files))
	var g errgroup.Group
	g.SetLimit(p.moderation.Concurrency())
	for i, f := range files {
		g.Go(func() error {
			results[i] = p.processItem(ctx, i, f)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *packService) processItem(ctx context.Context, idx int, f File) (res itemResult) {
	res.fileName = sanitize.FileName(f.FileName)
	res.verdict = p.moderation.Classify(ctx, f.Data, f.MediaType, "image "+strconv.Itoa(idx+1))
	if !res.verdict.Approved {
		return
	}
	image, err := p.normalizer.Normalize(f.Data, imagenorm.ImageSize, imagenorm.ImageSize)
	if err != nil {
		res.verdict = domain.Rejected("image could not be processed: " + err.Error())
		return
	}
	res.image = image
	return
}

func (p *packService) commit(ctx context.Context, pack domain.Pack, thumbnail imagenorm.Image, images []imagenorm.Image) (domain.Pack, error) {
	pack.Id = newPackId()
	pack.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	pack.Images = make([]string, 0, len(images))

	var written []string
	put := func(key string, image imagenorm.Image) (string, error) {
		ref, err := p.store.Put(ctx, store.File{
			Name:        key,
			MediaType:   image.MediaType,
			ContentSize: len(image.Data),
			Reader:      bytes.NewReader(image.Data),
		})
		if err != nil {
			return "", fmt.Errorf("store %s: %w", key, err)
		}
		written = append(written, ref)
		return ref, nil
	}

	err := func() (err error) {
		if pack.Thumbnail, err = put(store.ThumbnailKey(pack.Id), thumbnail); err != nil {
			return
		}
		for i, image := range images {
			ref, err := put(store.ImageKey(pack.Id, i), image)
			if err != nil {
				return err
			}
			pack.Images = append(pack.Images, ref)
		}
		if err = p.repo.Save(ctx, pack); err != nil {
			return fmt.Errorf("save pack: %w", err)
		}
		return nil
	}()
	if err != nil {
		p.cleanup(ctx, pack.Id, written)
		return domain.Pack{}, err
	}
	p.invalidateList(ctx)
	return pack, nil
}

// cleanup removes objects of a failed commit, whatever stays behind is left to the sweep
func (p *packService) cleanup(ctx context.Context, packId string, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := p.store.Delete(ctx, keys...); err != nil {
		log.Warn("can't remove objects of a failed commit", zap.String("packId", packId), zap.Int("count", len(keys)), zap.Error(err))
	}
}

func newPackId() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + suffix
}
