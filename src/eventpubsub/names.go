package eventpubsub

const (
	PriceUpdatedEvent  = "price.updated"
	TradeExecutedEvent = "trade.executed"
)
