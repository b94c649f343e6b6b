package main

import (
	"context"
	"time"

	"github.com/turtacn/aopwiki-graph/internal/application/conversion"
	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

type converter interface {
	Run(ctx context.Context, req conversion.Request) (*conversion.RunSummary, error)
}

type locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// exportHandler converts one published export per event.
type exportHandler struct {
	svc        converter
	newLock    func(name string) locker // nil disables locking
	lexicon    conversion.Request
	runTimeout time.Duration
	logger     logging.Logger
}

func newExportHandler(svc converter, cfg *config.Config, newLock func(string) locker, log logging.Logger) *exportHandler {
	base := conversion.RequestFromConfig(cfg)
	return &exportHandler{
		svc:     svc,
		newLock: newLock,
		lexicon: conversion.Request{
			LexiconPath:   base.LexiconPath,
			LexiconBucket: base.LexiconBucket,
			LexiconObject: base.LexiconObject,
		},
		runTimeout: cfg.Worker.RunTimeout,
		logger:     log,
	}
}

// request builds the conversion request for an event.  An event lexicon is
// read from the export's bucket and overrides the configured one.
func (h *exportHandler) request(p kafka.ExportPublishedPayload) conversion.Request {
	req := h.lexicon
	req.SourceBucket, req.SourceObject = p.Bucket, p.Object
	if p.Lexicon != "" {
		req.LexiconPath = ""
		req.LexiconBucket, req.LexiconObject = p.Bucket, p.Lexicon
	}
	return req
}

func (h *exportHandler) Handle(ctx context.Context, msg *kafka.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	if env.EventType != kafka.EventExportPublished {
		h.logger.Debug("ignoring event", logging.String("event_type", env.EventType))
		return nil
	}
	var p kafka.ExportPublishedPayload
	if err := env.DecodePayload(&p); err != nil {
		return err
	}
	if p.Bucket == "" || p.Object == "" {
		return errors.New(errors.ErrCodeValidation, "export event without bucket or object").
			WithDetail("event_id=" + env.EventID)
	}

	log := h.logger.With(logging.String("event_id", env.EventID), logging.String("object", p.Bucket+"/"+p.Object))

	if h.newLock != nil {
		lock := h.newLock(p.Bucket + "/" + p.Object)
		ok, err := lock.TryLock(ctx)
		if err != nil {
			return err
		}
		if !ok {
			log.Info("export is being converted by another worker; skipping")
			return nil
		}
		defer func() {
			if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("failed to release run lock", logging.Err(err))
			}
		}()
	}

	runCtx := ctx
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}
	sum, err := h.svc.Run(runCtx, h.request(p))
	if err != nil {
		return err
	}
	log.Info("export converted", logging.String("run_id", sum.Run.ID.String()))
	return nil
}
