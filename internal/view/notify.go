package view

import "candle-lens/internal/session"

func ImageLoaded() session.Notice {
	return session.Notice{Level: session.NoticeSuccess, Title: "Sucesso", Description: "Imagem carregada com sucesso!"}
}

func InvalidImage() session.Notice {
	return session.Notice{Level: session.NoticeError, Title: "Erro", Description: "Por favor, selecione apenas arquivos de imagem."}
}

func AnalysisCompleted(symbol string) session.Notice {
	return session.Notice{
		Level:       session.NoticeSuccess,
		Title:       "Análise Concluída",
		Description: "A IA analisou o gráfico de " + symbol + " com sucesso!",
	}
}

// AnalysisFailed carries the service message verbatim as the detail.
func AnalysisFailed(detail string) session.Notice {
	return session.Notice{
		Level:       session.NoticeError,
		Title:       "Erro na Análise",
		Description: "Ocorreu um erro durante a análise. Tente novamente.",
		Detail:      detail,
	}
}
