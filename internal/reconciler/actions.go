package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gitlab.bluewillows.net/root/ddnsweaver/internal/detect"
	"gitlab.bluewillows.net/root/ddnsweaver/pkg/provider"
)

// reconcileName patches every address record named fqdn. Only fatal errors are returned.
func (r *Reconciler) reconcileName(
	ctx context.Context,
	logger *slog.Logger,
	zoneName, zoneID, fqdn string,
	records []provider.Record,
	addrs detect.Addresses,
	result *Result,
) error {
	candidates, unsupported := provider.MatchRecords(records, fqdn)

	for _, err := range unsupported {
		var typeErr *provider.UnsupportedTypeError
		action := Action{Type: ActionSkip, Status: StatusSkipped, Zone: zoneName, Hostname: fqdn, Error: err.Error()}
		if errors.As(err, &typeErr) {
			action.RecordType = string(typeErr.Type)
			action.RecordID = typeErr.RecordID
		}
		logger.Warn("excluding record with unsupported type",
			slog.String("hostname", fqdn),
			slog.String("type", action.RecordType),
			slog.String("record_id", action.RecordID),
		)
		r.record(result, action)
	}

	if len(candidates) == 0 {
		if len(unsupported) == 0 {
			logger.Warn("no address record found", slog.String("hostname", fqdn))
			r.record(result, Action{
				Type:     ActionSkip,
				Status:   StatusSkipped,
				Zone:     zoneName,
				Hostname: fqdn,
				Error:    fmt.Sprintf("%v: %s", provider.ErrRecordNotFound, fqdn),
			})
		}
		return nil
	}

	for _, rec := range candidates {
		if err := r.updateRecord(ctx, logger, zoneName, zoneID, rec, addrs, result); err != nil {
			return err
		}
	}
	return nil
}

// updateRecord patches one record's content. Only fatal errors are returned.
func (r *Reconciler) updateRecord(
	ctx context.Context,
	logger *slog.Logger,
	zoneName, zoneID string,
	rec provider.Record,
	addrs detect.Addresses,
	result *Result,
) error {
	action := Action{
		Type:       ActionUpdate,
		Zone:       zoneName,
		Hostname:   rec.Name,
		RecordType: string(rec.Type),
		RecordID:   rec.ID,
	}

	addr, err := addrs.For(rec.Type)
	if err != nil {
		logger.Info("skipping record, address unresolved",
			slog.String("hostname", rec.Name),
			slog.String("type", string(rec.Type)),
		)
		action.Type = ActionSkip
		action.Status = StatusSkipped
		action.Error = err.Error()
		r.record(result, action)
		return nil
	}
	action.Target = addr.String()

	if r.config.DryRun {
		logger.Info("would update record",
			slog.String("hostname", rec.Name),
			slog.String("type", string(rec.Type)),
			slog.String("from", rec.Content),
			slog.String("to", action.Target),
		)
		action.Status = StatusSuccess
		r.record(result, action)
		return nil
	}

	updated, err := r.provider.UpdateRecord(ctx, zoneID, rec.ID, provider.ContentPatch(action.Target))
	if err != nil {
		r.countProviderError(err)
		action.Status = StatusFailed
		action.Error = err.Error()
		r.record(result, action)
		if isFatal(err) {
			return err
		}
		logger.Warn("failed to update record",
			slog.String("hostname", rec.Name),
			slog.String("type", string(rec.Type)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	logger.Info("updated record",
		slog.String("hostname", rec.Name),
		slog.String("type", string(rec.Type)),
		slog.String("content", updated.Content),
	)
	action.Status = StatusSuccess
	r.record(result, action)
	return nil
}
