package i18n

var messages = map[string]map[string]string{
	LocaleES: {
		"error.bad_request":                       "Solicitud no válida",
		"error.unauthorized":                      "No autorizado",
		"error.forbidden":                         "Acceso denegado",
		"error.not_found":                         "Recurso no encontrado",
		"error.internal":                          "Error interno del servidor",
		"error.too_many_requests":                 "Demasiadas solicitudes, inténtalo más tarde",
		"error.login_failed":                      "Usuario o contraseña incorrectos",
		"error.login_rate_limited":                "Demasiados intentos de acceso, inténtalo más tarde",
		"error.token_invalid":                     "Sesión no válida o caducada",
		"error.user_id_invalid":                   "Identificador de usuario no válido",
		"error.user_id_type_invalid":              "Tipo de identificador de usuario no válido",
		"error.admin_id_invalid":                  "Identificador de administrador no válido",
		"error.user_not_found":                    "Usuario no encontrado",
		"error.user_disabled":                     "La cuenta está desactivada",
		"error.email_exists":                      "El correo ya está registrado",
		"error.password_weak":                     "La contraseña debe tener al menos 8 caracteres",
		"error.password_min_length":               "La contraseña debe tener al menos %d caracteres",
		"error.password_require_upper":            "La contraseña debe incluir una mayúscula",
		"error.password_require_lower":            "La contraseña debe incluir una minúscula",
		"error.password_require_number":           "La contraseña debe incluir un número",
		"error.password_require_special":          "La contraseña debe incluir un carácter especial",
		"error.quote_not_found":                   "Presupuesto no encontrado",
		"error.quote_invalid_transition":          "El presupuesto no admite esta acción en su estado actual",
		"error.quote_not_paid":                    "El presupuesto no está pagado",
		"error.quote_already_converted":           "El presupuesto ya se convirtió en pedido",
		"error.quote_conversion_conflict":         "Otro proceso está convirtiendo este presupuesto",
		"error.quote_not_priced":                  "El presupuesto aún no tiene precio",
		"error.quote_fetch_failed":                "No se pudo obtener el presupuesto",
		"error.quote_create_failed":               "No se pudo crear el presupuesto",
		"error.quote_update_failed":               "No se pudo actualizar el presupuesto",
		"error.quote_rate_limited":                "Has enviado demasiadas solicitudes de presupuesto",
		"error.product_not_found":                 "Producto no encontrado",
		"error.product_fetch_failed":              "No se pudo obtener el producto",
		"error.product_save_failed":               "No se pudo guardar el producto",
		"error.price_ranges_missing":              "No hay tramos de precio configurados",
		"error.invalid_quantity":                  "La cantidad debe ser mayor que cero",
		"error.invalid_price_range":               "Los tramos de precio no son válidos",
		"error.voucher_not_found":                 "Bono no encontrado",
		"error.voucher_inactive":                  "El bono no está activo",
		"error.voucher_insufficient":              "Saldo de bono insuficiente",
		"error.voucher_save_failed":               "No se pudo guardar el bono",
		"error.order_not_found":                   "Pedido no encontrado",
		"error.order_fetch_failed":                "No se pudo obtener el pedido",
		"error.order_create_failed":               "No se pudo crear el pedido",
		"error.order_update_failed":               "No se pudo actualizar el pedido",
		"error.order_invalid_transition":          "El pedido no admite este cambio de estado",
		"error.cart_empty":                        "El carrito está vacío",
		"error.cart_fetch_failed":                 "No se pudo obtener el carrito",
		"error.cart_update_failed":                "No se pudo actualizar el carrito",
		"error.coupon_invalid":                    "El cupón no es válido",
		"error.coupon_not_found":                  "Cupón no encontrado",
		"error.coupon_save_failed":                "No se pudo guardar el cupón",
		"error.points_insufficient":               "No tienes puntos suficientes",
		"error.loyalty_fetch_failed":              "No se pudo obtener el programa de puntos",
		"error.payment_gateway_failed":            "La pasarela de pago no respondió correctamente",
		"error.payment_provider_not_supported":    "Método de pago no disponible",
		"error.settings_fetch_failed":             "No se pudo obtener la configuración",
		"error.settings_save_failed":              "No se pudo guardar la configuración",
		"email.order_confirmation.subject":        "Confirmación del pedido %s",
		"email.order_confirmation.body":           "Hemos recibido tu pedido %s por un total de %s %s.",
		"email.quote_ready.subject":               "Tu presupuesto %s está listo",
		"email.quote_ready.body":                  "El presupuesto %s tiene un total estimado de %s %s. Es válido hasta el %s.",
		"error.admin_create_failed":               "No se pudo crear el administrador",
		"error.admin_delete_failed":               "No se pudo eliminar el administrador",
		"error.admin_delete_last_forbidden":       "No se puede eliminar el último administrador",
		"error.admin_delete_last_super_forbidden": "No se puede eliminar el último superadministrador",
		"error.admin_delete_protected":            "Este administrador está protegido",
		"error.admin_delete_self_forbidden":       "No puedes eliminar tu propia cuenta",
		"error.admin_id_type_invalid":             "Tipo de identificador de administrador no válido",
		"error.admin_not_found":                   "Administrador no encontrado",
		"error.admin_username_exists":             "El nombre de usuario ya existe",
		"error.admin_username_invalid":            "Nombre de usuario no válido",
		"error.auth_header_invalid":               "Cabecera de autorización no válida",
		"error.auth_header_missing":               "Falta la cabecera de autorización",
		"error.authz_fetch_failed":                "No se pudieron obtener los permisos",
		"error.authz_role_reserved":               "Rol reservado",
		"error.authz_unavailable":                 "Servicio de permisos no disponible",
		"error.cart_item_invalid":                 "Artículo del carrito no válido",
		"error.checkout_failed":                   "No se pudo completar el pedido",
		"error.coupon_code_exists":                "El código del cupón ya existe",
		"error.coupon_expired":                    "El cupón ha caducado",
		"error.coupon_fetch_failed":               "No se pudieron obtener los cupones",
		"error.coupon_id_invalid":                 "Identificador de cupón no válido",
		"error.coupon_inactive":                   "El cupón no está activo",
		"error.coupon_min_amount":                 "No se alcanza el importe mínimo del cupón",
		"error.coupon_not_started":                "El cupón aún no está vigente",
		"error.coupon_per_user_limit":             "Has alcanzado el límite de uso del cupón",
		"error.coupon_usage_limit":                "El cupón ha agotado sus usos",
		"error.dashboard_fetch_failed":            "No se pudo obtener el panel",
		"error.dashboard_range_invalid":           "Rango de fechas no válido",
		"error.email_disabled":                    "El envío de correo está desactivado",
		"error.email_invalid":                     "Correo electrónico no válido",
		"error.email_send_failed":                 "No se pudo enviar el correo",
		"error.jwt_secret_missing":                "Falta la clave JWT",
		"error.login_invalid":                     "Correo o contraseña incorrectos",
		"error.order_id_invalid":                  "Identificador de pedido no válido",
		"error.order_not_payable":                 "El pedido no admite pago",
		"error.password_max_length":               "La contraseña no puede superar %d bytes",
		"error.password_old_invalid":              "La contraseña actual no es correcta",
		"error.payment_create_failed":             "No se pudo generar el enlace de pago",
		"error.payment_reference_required":        "Falta la referencia de pago",
		"error.product_create_failed":             "No se pudo crear el producto",
		"error.product_delete_failed":             "No se pudo eliminar el producto",
		"error.product_id_invalid":                "Identificador de producto no válido",
		"error.product_slug_conflict":             "El slug del producto ya existe",
		"error.product_update_failed":             "No se pudo actualizar el producto",
		"error.profile_empty":                     "No hay cambios en el perfil",
		"error.profile_update_failed":             "No se pudo actualizar el perfil",
		"error.quote_id_invalid":                  "Identificador de presupuesto no válido",
		"error.rate_limit_unavailable":            "Servicio temporalmente no disponible",
		"error.rate_limited":                      "Demasiadas solicitudes, inténtalo más tarde",
		"error.register_failed":                   "No se pudo completar el registro",
		"error.save_failed":                       "No se pudo guardar",
		"error.setting_invalid":                   "Valor de configuración no válido",
		"error.setting_key_invalid":               "Clave de configuración no válida",
		"error.tax_id_required":                   "El NIF/CIF es obligatorio para presupuestos exentos",
		"error.token_revoked":                     "La sesión ha sido revocada",
		"error.user_fetch_failed":                 "No se pudieron obtener los usuarios",
		"error.user_update_failed":                "No se pudo actualizar el usuario",
		"error.voucher_fetch_failed":              "No se pudieron obtener los bonos",
		"error.voucher_id_invalid":                "Identificador de bono no válido",
	},
	LocaleEN: {
		"error.bad_request":                       "Invalid request",
		"error.unauthorized":                      "Unauthorized",
		"error.forbidden":                         "Forbidden",
		"error.not_found":                         "Resource not found",
		"error.internal":                          "Internal server error",
		"error.too_many_requests":                 "Too many requests, please try again later",
		"error.login_failed":                      "Invalid username or password",
		"error.login_rate_limited":                "Too many login attempts, please try again later",
		"error.token_invalid":                     "Session invalid or expired",
		"error.user_id_invalid":                   "Invalid user id",
		"error.user_id_type_invalid":              "Invalid user id type",
		"error.admin_id_invalid":                  "Invalid admin id",
		"error.user_not_found":                    "User not found",
		"error.user_disabled":                     "Account is disabled",
		"error.email_exists":                      "Email is already registered",
		"error.password_weak":                     "Password must be at least 8 characters",
		"error.password_min_length":               "Password must be at least %d characters",
		"error.password_require_upper":            "Password must contain an uppercase letter",
		"error.password_require_lower":            "Password must contain a lowercase letter",
		"error.password_require_number":           "Password must contain a number",
		"error.password_require_special":          "Password must contain a special character",
		"error.quote_not_found":                   "Quote not found",
		"error.quote_invalid_transition":          "The quote does not allow this action in its current status",
		"error.quote_not_paid":                    "The quote is not paid",
		"error.quote_already_converted":           "The quote has already been converted to an order",
		"error.quote_conversion_conflict":         "Another process is converting this quote",
		"error.quote_not_priced":                  "The quote has not been priced yet",
		"error.quote_fetch_failed":                "Failed to load quote",
		"error.quote_create_failed":               "Failed to create quote",
		"error.quote_update_failed":               "Failed to update quote",
		"error.quote_rate_limited":                "Too many quote requests",
		"error.product_not_found":                 "Product not found",
		"error.product_fetch_failed":              "Failed to load product",
		"error.product_save_failed":               "Failed to save product",
		"error.price_ranges_missing":              "No price ranges configured",
		"error.invalid_quantity":                  "Quantity must be greater than zero",
		"error.invalid_price_range":               "Invalid price ranges",
		"error.voucher_not_found":                 "Voucher not found",
		"error.voucher_inactive":                  "Voucher is not active",
		"error.voucher_insufficient":              "Insufficient voucher balance",
		"error.voucher_save_failed":               "Failed to save voucher",
		"error.order_not_found":                   "Order not found",
		"error.order_fetch_failed":                "Failed to load order",
		"error.order_create_failed":               "Failed to create order",
		"error.order_update_failed":               "Failed to update order",
		"error.order_invalid_transition":          "Order status change not allowed",
		"error.cart_empty":                        "Cart is empty",
		"error.cart_fetch_failed":                 "Failed to load cart",
		"error.cart_update_failed":                "Failed to update cart",
		"error.coupon_invalid":                    "Coupon is not valid",
		"error.coupon_not_found":                  "Coupon not found",
		"error.coupon_save_failed":                "Failed to save coupon",
		"error.points_insufficient":               "Not enough points",
		"error.loyalty_fetch_failed":              "Failed to load loyalty account",
		"error.payment_gateway_failed":            "Payment gateway returned an error",
		"error.payment_provider_not_supported":    "Payment method not available",
		"error.settings_fetch_failed":             "Failed to load settings",
		"error.settings_save_failed":              "Failed to save settings",
		"email.order_confirmation.subject":        "Order %s confirmed",
		"email.order_confirmation.body":           "We have received your order %s for a total of %s %s.",
		"email.quote_ready.subject":               "Your quote %s is ready",
		"email.quote_ready.body":                  "Quote %s has an estimated total of %s %s. It is valid until %s.",
		"error.admin_create_failed":               "Failed to create admin",
		"error.admin_delete_failed":               "Failed to delete admin",
		"error.admin_delete_last_forbidden":       "Cannot delete the last admin",
		"error.admin_delete_last_super_forbidden": "Cannot delete the last super admin",
		"error.admin_delete_protected":            "This admin is protected",
		"error.admin_delete_self_forbidden":       "You cannot delete your own account",
		"error.admin_id_type_invalid":             "Invalid admin id type",
		"error.admin_not_found":                   "Admin not found",
		"error.admin_username_exists":             "Username already exists",
		"error.admin_username_invalid":            "Invalid username",
		"error.auth_header_invalid":               "Invalid authorization header",
		"error.auth_header_missing":               "Missing authorization header",
		"error.authz_fetch_failed":                "Failed to fetch permissions",
		"error.authz_role_reserved":               "Reserved role",
		"error.authz_unavailable":                 "Permission service unavailable",
		"error.cart_item_invalid":                 "Invalid cart item",
		"error.checkout_failed":                   "Checkout failed",
		"error.coupon_code_exists":                "Coupon code already exists",
		"error.coupon_expired":                    "Coupon has expired",
		"error.coupon_fetch_failed":               "Failed to fetch coupons",
		"error.coupon_id_invalid":                 "Invalid coupon id",
		"error.coupon_inactive":                   "Coupon is inactive",
		"error.coupon_min_amount":                 "Order does not reach the coupon minimum",
		"error.coupon_not_started":                "Coupon is not active yet",
		"error.coupon_per_user_limit":             "Coupon per-user limit reached",
		"error.coupon_usage_limit":                "Coupon usage limit reached",
		"error.dashboard_fetch_failed":            "Failed to fetch dashboard",
		"error.dashboard_range_invalid":           "Invalid date range",
		"error.email_disabled":                    "Email delivery is disabled",
		"error.email_invalid":                     "Invalid email address",
		"error.email_send_failed":                 "Failed to send email",
		"error.jwt_secret_missing":                "JWT secret is not configured",
		"error.login_invalid":                     "Invalid email or password",
		"error.order_id_invalid":                  "Invalid order id",
		"error.order_not_payable":                 "Order cannot be paid",
		"error.password_max_length":               "Password must be at most %d bytes",
		"error.password_old_invalid":              "Current password is incorrect",
		"error.payment_create_failed":             "Failed to create payment link",
		"error.payment_reference_required":        "Payment reference is required",
		"error.product_create_failed":             "Failed to create product",
		"error.product_delete_failed":             "Failed to delete product",
		"error.product_id_invalid":                "Invalid product id",
		"error.product_slug_conflict":             "Product slug already exists",
		"error.product_update_failed":             "Failed to update product",
		"error.profile_empty":                     "No profile changes provided",
		"error.profile_update_failed":             "Failed to update profile",
		"error.quote_id_invalid":                  "Invalid quote id",
		"error.rate_limit_unavailable":            "Service temporarily unavailable",
		"error.rate_limited":                      "Too many requests, try again later",
		"error.register_failed":                   "Registration failed",
		"error.save_failed":                       "Save failed",
		"error.setting_invalid":                   "Invalid setting value",
		"error.setting_key_invalid":               "Invalid setting key",
		"error.tax_id_required":                   "Tax id is required for tax-exempt quotes",
		"error.token_revoked":                     "Session has been revoked",
		"error.user_fetch_failed":                 "Failed to fetch users",
		"error.user_update_failed":                "Failed to update user",
		"error.voucher_fetch_failed":              "Failed to fetch vouchers",
		"error.voucher_id_invalid":                "Invalid voucher id",
	},
	LocaleZH: {
		"error.bad_request":                       "请求参数错误",
		"error.unauthorized":                      "未授权",
		"error.forbidden":                         "无权访问",
		"error.not_found":                         "资源不存在",
		"error.internal":                          "服务器内部错误",
		"error.too_many_requests":                 "请求过于频繁，请稍后再试",
		"error.login_failed":                      "用户名或密码错误",
		"error.login_rate_limited":                "登录尝试过多，请稍后再试",
		"error.token_invalid":                     "登录状态无效或已过期",
		"error.user_id_invalid":                   "用户ID无效",
		"error.user_id_type_invalid":              "用户ID类型错误",
		"error.admin_id_invalid":                  "管理员ID无效",
		"error.user_not_found":                    "用户不存在",
		"error.user_disabled":                     "账号已被禁用",
		"error.email_exists":                      "邮箱已被注册",
		"error.password_weak":                     "密码至少需要 8 位",
		"error.password_min_length":               "密码至少需要 %d 位",
		"error.password_require_upper":            "密码需包含大写字母",
		"error.password_require_lower":            "密码需包含小写字母",
		"error.password_require_number":           "密码需包含数字",
		"error.password_require_special":          "密码需包含特殊字符",
		"error.quote_not_found":                   "报价单不存在",
		"error.quote_invalid_transition":          "当前状态不允许该操作",
		"error.quote_not_paid":                    "报价单尚未支付",
		"error.quote_already_converted":           "报价单已转为订单",
		"error.quote_conversion_conflict":         "报价单正在被其他请求转换",
		"error.quote_not_priced":                  "报价单尚未定价",
		"error.quote_fetch_failed":                "获取报价单失败",
		"error.quote_create_failed":               "创建报价单失败",
		"error.quote_update_failed":               "更新报价单失败",
		"error.quote_rate_limited":                "报价请求过于频繁",
		"error.product_not_found":                 "商品不存在",
		"error.product_fetch_failed":              "获取商品失败",
		"error.product_save_failed":               "保存商品失败",
		"error.price_ranges_missing":              "未配置价格区间",
		"error.invalid_quantity":                  "数量必须大于 0",
		"error.invalid_price_range":               "价格区间无效",
		"error.voucher_not_found":                 "凭证不存在",
		"error.voucher_inactive":                  "凭证不可用",
		"error.voucher_insufficient":              "凭证余额不足",
		"error.voucher_save_failed":               "保存凭证失败",
		"error.order_not_found":                   "订单不存在",
		"error.order_fetch_failed":                "获取订单失败",
		"error.order_create_failed":               "创建订单失败",
		"error.order_update_failed":               "更新订单失败",
		"error.order_invalid_transition":          "订单状态不允许该变更",
		"error.cart_empty":                        "购物车为空",
		"error.cart_fetch_failed":                 "获取购物车失败",
		"error.cart_update_failed":                "更新购物车失败",
		"error.coupon_invalid":                    "优惠券不可用",
		"error.coupon_not_found":                  "优惠券不存在",
		"error.coupon_save_failed":                "保存优惠券失败",
		"error.points_insufficient":               "积分不足",
		"error.loyalty_fetch_failed":              "获取积分账户失败",
		"error.payment_gateway_failed":            "支付网关返回错误",
		"error.payment_provider_not_supported":    "支付方式不可用",
		"error.settings_fetch_failed":             "获取设置失败",
		"error.settings_save_failed":              "保存设置失败",
		"email.order_confirmation.subject":        "订单 %s 已确认",
		"email.order_confirmation.body":           "我们已收到您的订单 %s，合计 %s %s。",
		"email.quote_ready.subject":               "您的报价单 %s 已就绪",
		"email.quote_ready.body":                  "报价单 %s 预估总额 %s %s，有效期至 %s。",
		"error.admin_create_failed":               "创建管理员失败",
		"error.admin_delete_failed":               "删除管理员失败",
		"error.admin_delete_last_forbidden":       "不能删除最后一个管理员",
		"error.admin_delete_last_super_forbidden": "不能删除最后一个超级管理员",
		"error.admin_delete_protected":            "该管理员受保护，不可删除",
		"error.admin_delete_self_forbidden":       "不能删除当前登录的管理员",
		"error.admin_id_type_invalid":             "管理员ID类型无效",
		"error.admin_not_found":                   "管理员不存在",
		"error.admin_username_exists":             "管理员账号已存在",
		"error.admin_username_invalid":            "管理员账号格式无效",
		"error.auth_header_invalid":               "Authorization 头格式无效",
		"error.auth_header_missing":               "缺少 Authorization 头",
		"error.authz_fetch_failed":                "获取权限失败",
		"error.authz_role_reserved":               "保留角色不可操作",
		"error.authz_unavailable":                 "权限服务不可用",
		"error.cart_item_invalid":                 "购物车商品无效",
		"error.checkout_failed":                   "下单失败",
		"error.coupon_code_exists":                "优惠码已存在",
		"error.coupon_expired":                    "优惠券已过期",
		"error.coupon_fetch_failed":               "获取优惠券失败",
		"error.coupon_id_invalid":                 "优惠券ID无效",
		"error.coupon_inactive":                   "优惠券未启用",
		"error.coupon_min_amount":                 "未达到优惠券使用门槛",
		"error.coupon_not_started":                "优惠券尚未生效",
		"error.coupon_per_user_limit":             "已达到每人使用上限",
		"error.coupon_usage_limit":                "优惠券使用次数已用完",
		"error.dashboard_fetch_failed":            "获取仪表盘数据失败",
		"error.dashboard_range_invalid":           "统计时间范围无效",
		"error.email_disabled":                    "邮件发送未启用",
		"error.email_invalid":                     "邮箱格式无效",
		"error.email_send_failed":                 "邮件发送失败",
		"error.jwt_secret_missing":                "未配置 JWT 密钥",
		"error.login_invalid":                     "邮箱或密码错误",
		"error.order_id_invalid":                  "订单ID无效",
		"error.order_not_payable":                 "订单当前不可支付",
		"error.password_max_length":               "密码不能超过 %d 字节",
		"error.password_old_invalid":              "原密码错误",
		"error.payment_create_failed":             "生成支付链接失败",
		"error.payment_reference_required":        "缺少支付流水号",
		"error.product_create_failed":             "创建商品失败",
		"error.product_delete_failed":             "删除商品失败",
		"error.product_id_invalid":                "商品ID无效",
		"error.product_slug_conflict":             "商品标识已存在",
		"error.product_update_failed":             "更新商品失败",
		"error.profile_empty":                     "没有需要更新的资料",
		"error.profile_update_failed":             "更新资料失败",
		"error.quote_id_invalid":                  "报价单ID无效",
		"error.rate_limit_unavailable":            "限流服务暂不可用",
		"error.rate_limited":                      "请求过于频繁，请稍后再试",
		"error.register_failed":                   "注册失败",
		"error.save_failed":                       "保存失败",
		"error.setting_invalid":                   "配置值无效",
		"error.setting_key_invalid":               "配置键无效",
		"error.tax_id_required":                   "免税报价必须填写税号",
		"error.token_revoked":                     "登录状态已失效，请重新登录",
		"error.user_fetch_failed":                 "获取用户失败",
		"error.user_update_failed":                "更新用户失败",
		"error.voucher_fetch_failed":              "获取凭证失败",
		"error.voucher_id_invalid":                "凭证ID无效",
	},
}
