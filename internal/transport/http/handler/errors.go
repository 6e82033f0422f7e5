package handler

const (
	msgMissingToken  = "Token no proporcionado"
	msgTokenInvalid  = "Token inválido o expirado"
	msgCreateFailed  = "Error al crear usuario"
	msgBadUpstream   = "Respuesta no válida del servidor externo"
	msgLookupFailed  = "No se pudo consultar el registro de personal"
	msgInvalidFields = "Datos de registro inválidos"
	msgInternal      = "Internal server error"
)
