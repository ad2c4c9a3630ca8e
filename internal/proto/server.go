package proto

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipebook-back/internal/service"
)

type callerKey struct{}

// CatalogServerImpl serves the read side of the catalog over gRPC. Calls are
// authenticated with the same token as the HTTP API, passed in the
// "authorization" metadata as "Token <key>".
type CatalogServerImpl struct {
	catalog *service.Catalog
	tokens  *service.Tokens
	logger  *zap.SugaredLogger

	server *grpc.Server
	health *health.Server
}

func NewCatalogServer(catalog *service.Catalog, tokens *service.Tokens, logger *zap.SugaredLogger) *CatalogServerImpl {
	instance := &CatalogServerImpl{
		catalog: catalog,
		tokens:  tokens,
		logger:  logger,
		health:  health.NewServer(),
	}

	instance.server = grpc.NewServer(grpc.UnaryInterceptor(instance.authenticate))
	RegisterCatalogServer(instance.server, instance)
	healthpb.RegisterHealthServer(instance.server, instance.health)
	instance.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return instance
}

func NewGRPCServer(lc fx.Lifecycle, cfg *config.Config, catalog *service.Catalog, tokens *service.Tokens, logger *zap.SugaredLogger) *CatalogServerImpl {
	instance := NewCatalogServer(catalog, tokens, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.GRPCAddr())
			if err != nil {
				return errors.Wrap(err, "failed to listen")
			}
			logger.Infow("Starting GRPC server.", "addr", lis.Addr().String())
			go func() {
				if err := instance.Serve(lis); err != nil {
					logger.Errorw("GRPC server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			instance.health.Shutdown()
			instance.server.GracefulStop()
			return nil
		},
	})

	return instance
}

func (s *CatalogServerImpl) Serve(lis net.Listener) error {
	return s.server.Serve(lis)
}

func (s *CatalogServerImpl) Stop() {
	s.server.Stop()
}

func (s *CatalogServerImpl) authenticate(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if strings.HasPrefix(info.FullMethod, "/"+healthpb.Health_ServiceDesc.ServiceName+"/") {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)
	user, err := s.tokens.Resolve(ctx, tokenFromMetadata(md))
	if err != nil {
		return nil, toStatus(err, s.logger)
	}

	return handler(context.WithValue(ctx, callerKey{}, user), req)
}

func tokenFromMetadata(md metadata.MD) string {
	if values := md.Get("authorization"); len(values) != 0 {
		parts := strings.Fields(values[0])
		if len(parts) == 2 && (strings.EqualFold(parts[0], "token") || strings.EqualFold(parts[0], "bearer")) {
			return parts[1]
		}
		return ""
	}
	if values := md.Get("x-token"); len(values) != 0 {
		return values[0]
	}
	return ""
}

func callerFrom(ctx context.Context) *db.User {
	user, _ := ctx.Value(callerKey{}).(*db.User)
	return user
}

func (s *CatalogServerImpl) ListTags(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	tags, err := s.catalog.ListTags(ctx, callerFrom(ctx), boolField(request, "assigned_only"))
	if err != nil {
		return nil, toStatus(err, s.logger)
	}

	items := make([]interface{}, len(tags))
	for i := range tags {
		items[i] = map[string]interface{}{
			"id":   tags[i].ID,
			"name": tags[i].Name,
		}
	}
	return itemsResponse(items, s.logger)
}

func (s *CatalogServerImpl) ListIngredients(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	ingredients, err := s.catalog.ListIngredients(ctx, callerFrom(ctx), boolField(request, "assigned_only"))
	if err != nil {
		return nil, toStatus(err, s.logger)
	}

	items := make([]interface{}, len(ingredients))
	for i := range ingredients {
		items[i] = map[string]interface{}{
			"id":   ingredients[i].ID,
			"name": ingredients[i].Name,
		}
	}
	return itemsResponse(items, s.logger)
}

func (s *CatalogServerImpl) ListRecipes(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	tagIDs, err := idsField(request, "tags")
	if err != nil {
		return nil, err
	}
	ingredientIDs, err := idsField(request, "ingredients")
	if err != nil {
		return nil, err
	}

	recipes, err := s.catalog.ListRecipes(ctx, callerFrom(ctx), service.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return nil, toStatus(err, s.logger)
	}

	items := make([]interface{}, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		tags := make([]interface{}, len(r.Tags))
		for j := range r.Tags {
			tags[j] = r.Tags[j].ID
		}
		ingredients := make([]interface{}, len(r.Ingredients))
		for j := range r.Ingredients {
			ingredients[j] = r.Ingredients[j].ID
		}
		var link interface{}
		if r.Link != nil {
			link = *r.Link
		}
		items[i] = map[string]interface{}{
			"id":           r.ID,
			"title":        r.Title,
			"time_minutes": r.TimeMinutes,
			"price":        r.Price.String(),
			"link":         link,
			"tags":         tags,
			"ingredients":  ingredients,
		}
	}
	return itemsResponse(items, s.logger)
}

func itemsResponse(items []interface{}, logger *zap.SugaredLogger) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(map[string]interface{}{"items": items})
	if err != nil {
		return nil, toStatus(errors.Wrap(err, "build response"), logger)
	}
	return resp, nil
}

func boolField(req *structpb.Struct, name string) bool {
	if req == nil {
		return false
	}
	v, ok := req.GetFields()[name]
	return ok && v.GetBoolValue()
}

func idsField(req *structpb.Struct, name string) ([]uint64, error) {
	if req == nil {
		return nil, nil
	}
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, nil
	}
	list := v.GetListValue()
	if list == nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a list of ids", name)
	}

	ids := make([]uint64, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		n := item.GetNumberValue()
		if _, isNumber := item.GetKind().(*structpb.Value_NumberValue); !isNumber || n < 0 || n != float64(uint64(n)) {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be a list of ids", name)
		}
		ids = append(ids, uint64(n))
	}
	return ids, nil
}

func toStatus(err error, logger *zap.SugaredLogger) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case service.IsUnauthenticated(err):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	logger.Errorw("grpc call failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
