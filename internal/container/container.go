package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/config"
	"github.com/uzimatech/borehole-api/internal/gateway"
	"github.com/uzimatech/borehole-api/internal/geo"
	"github.com/uzimatech/borehole-api/internal/notify"
	"github.com/uzimatech/borehole-api/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	gatewayRegistry *gateway.Registry
	notifier        notify.Notifier
	geocoder        geo.Geocoder
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetGateways(r *gateway.Registry) { gatewayRegistry = r }
func GetGateways() *gateway.Registry  { return gatewayRegistry }
func SetNotifier(n notify.Notifier)   { notifier = n }
func GetNotifier() notify.Notifier {
	if notifier != nil {
		return notifier
	}
	return notify.NoopNotifier{}
}
func SetGeocoder(g geo.Geocoder) { geocoder = g }
func GetGeocoder() geo.Geocoder  { return geocoder }
