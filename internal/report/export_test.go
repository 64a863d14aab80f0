package report

var (
	RenderTableWidth = renderTableWidth
	CalcColumnWidths = calcColumnWidths
	PadToWidth       = padToWidth
)
