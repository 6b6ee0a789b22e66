package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ozzus/fan-avia/exchange-rules/internal/application/calendar"
	"github.com/ozzus/fan-avia/exchange-rules/internal/application/service"
	derr "github.com/ozzus/fan-avia/exchange-rules/internal/domain/errors"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/models"
	"github.com/ozzus/fan-avia/exchange-rules/internal/domain/ports"
	"github.com/ozzus/fan-avia/exchange-rules/internal/infrastructures/diag"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type Options struct {
	// DiagEnabled lets callers request decision traces.
	DiagEnabled bool
	DiagColor   bool
}

type serverAPI struct {
	log     *zap.Logger
	service *service.VoluntaryChanges
	opts    Options
	printer *diag.Printer
}

func Register(gRPCServer *grpc.Server, log *zap.Logger, svc *service.VoluntaryChanges, opts Options) {
	gRPCServer.RegisterService(&serviceDesc, newServerAPI(log, svc, opts))
}

func newServerAPI(log *zap.Logger, svc *service.VoluntaryChanges, opts Options) *serverAPI {
	if log == nil {
		log = zap.NewNop()
	}
	return &serverAPI{log: log, service: svc, opts: opts, printer: diag.NewPrinter(opts.DiagColor)}
}

func (s *serverAPI) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, dto, collector, err := s.decode(req)
	if err != nil {
		return nil, err
	}
	if len(dto.Items) == 0 {
		return nil, status.Error(codes.InvalidArgument, "items are required")
	}

	cal := s.service.BuildCalendar(ctx, in.trx)
	resp := validateResponseDTO{FareComp: dto.FareComp, Results: make([]itemResultDTO, 0, len(dto.Items))}
	for _, item := range dto.Items {
		out, err := s.evaluate(ctx, in, cal, item, collector)
		if err != nil {
			s.log.Error("Validate failed", zap.Int("fare_comp", dto.FareComp), zap.Int("item_no", item.ItemNo), zap.Error(err))
			return nil, mapValidateError(err)
		}
		resp.Results = append(resp.Results, toItemResult(models.Vendor(item.Vendor), item.ItemNo, out.Result, out.Sequences, out.OverridingFc))
	}
	resp.Diagnostics = s.render(collector)

	return encode(resp)
}

func (s *serverAPI) MergeConstraints(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, dto, collector, err := s.decode(req)
	if err != nil {
		return nil, err
	}
	if len(dto.Items) != 1 {
		return nil, status.Error(codes.InvalidArgument, "exactly one item is required")
	}

	out, err := s.evaluate(ctx, in, s.service.BuildCalendar(ctx, in.trx), dto.Items[0], collector)
	if err != nil {
		s.log.Error("MergeConstraints failed", zap.Int("fare_comp", dto.FareComp), zap.Int("item_no", dto.Items[0].ItemNo), zap.Error(err))
		return nil, mapValidateError(err)
	}

	resp := mergeResponseDTO{
		FareComp:    dto.FareComp,
		Result:      out.Result.String(),
		Constraints: make([]constraintDTO, 0, len(out.Constraints)),
		Calendar:    toCalendarDTO(out.Calendar),
		Diagnostics: s.render(collector),
	}
	for _, c := range out.Constraints {
		resp.Constraints = append(resp.Constraints, toConstraintDTO(c))
	}

	return encode(resp)
}

func (s *serverAPI) decode(req *structpb.Struct) (evaluationInput, validateRequestDTO, *diag.Collector, error) {
	if req == nil {
		return evaluationInput{}, validateRequestDTO{}, nil, status.Error(codes.InvalidArgument, "request is required")
	}

	raw, err := protojson.Marshal(req)
	if err != nil {
		return evaluationInput{}, validateRequestDTO{}, nil, status.Error(codes.InvalidArgument, "malformed request")
	}
	var dto validateRequestDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return evaluationInput{}, validateRequestDTO{}, nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	in, err := toDomain(dto)
	if err != nil {
		return evaluationInput{}, validateRequestDTO{}, nil, mapValidateError(err)
	}

	var collector *diag.Collector
	if dto.Diag && s.opts.DiagEnabled {
		collector = diag.NewCollector()
	}
	return in, dto, collector, nil
}

func (s *serverAPI) evaluate(ctx context.Context, in evaluationInput, cal *calendar.R3ValidationResult, item rec3KeyDTO, collector *diag.Collector) (service.Outcome, error) {
	rec3, err := s.service.Record3(ctx, in.trx, models.Vendor(item.Vendor), item.ItemNo)
	if err != nil {
		return service.Outcome{}, err
	}

	var d ports.DiagCollector
	if collector != nil {
		d = collector
	}
	return s.service.Validate(ctx, service.Request{
		Trx:         in.trx,
		Calendar:    cal,
		FareUsage:   in.target,
		PricingUnit: in.pu,
		Rec3:        rec3,
		Diag:        d,
	})
}

func (s *serverAPI) render(collector *diag.Collector) []string {
	if collector == nil {
		return nil
	}
	lines := collector.Lines()
	for i, line := range lines {
		lines[i] = s.printer.Render(line)
	}
	return lines
}

func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

func mapValidateError(err error) error {
	switch {
	case errors.Is(err, derr.ErrInvalidRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, derr.ErrRuleNotFound):
		return status.Error(codes.NotFound, "record 3 not found")
	case errors.Is(err, derr.ErrDataErrorDetected):
		return status.Error(codes.FailedPrecondition, "rule data error detected")
	case errors.Is(err, derr.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "rule store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
